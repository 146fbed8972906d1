package session

import (
	"fmt"
	"strings"
	"text/template"

	"mercator-hq/relay/pkg/providers"
)

// DefaultDirective is the system directive used when none is configured.
const DefaultDirective = "You are a bot designed to answer questions for {{.Name}}"

// DefaultExamples is the worked exchange shown to the provider before the
// conversation history.
var DefaultExamples = []Example{
	{
		User:      "Where is Paris?",
		Assistant: "Paris is in France {{.Name}}, what else can I help you with?",
	},
}

// linkCatalogHeader introduces the reference links inside the directive.
const linkCatalogHeader = "Reference links. Reproduce these links exactly as written. " +
	"Never alter, shorten or invent a link, and never cite a link that is not in this list:"

// Example is a worked user/assistant exchange. Both sides are templates that
// may use {{.Name}}.
type Example struct {
	User      string `yaml:"user" json:"user"`
	Assistant string `yaml:"assistant" json:"assistant"`
}

// Persona is the fixed part of every prompt.
type Persona struct {
	// Directive is the system message template. Default: DefaultDirective
	Directive string

	// Examples are worked exchanges placed before the history.
	// nil selects DefaultExamples; an empty non-nil slice disables them.
	Examples []Example

	// Links is an optional catalog embedded verbatim in the directive.
	Links []string
}

type promptData struct {
	Name string
}

type exampleTemplates struct {
	user      *template.Template
	assistant *template.Template
}

// Assembler builds the ordered prompt for a completion request. Build is a
// pure function of its inputs.
type Assembler struct {
	directive *template.Template
	examples  []exampleTemplates
	links     string
}

// NewAssembler parses the persona templates.
func NewAssembler(p Persona) (*Assembler, error) {
	if p.Directive == "" {
		p.Directive = DefaultDirective
	}
	if p.Examples == nil {
		p.Examples = DefaultExamples
	}

	directive, err := parseTemplate("directive", p.Directive)
	if err != nil {
		return nil, err
	}

	a := &Assembler{directive: directive}
	for i, ex := range p.Examples {
		user, err := parseTemplate(fmt.Sprintf("examples[%d].user", i), ex.User)
		if err != nil {
			return nil, err
		}
		assistant, err := parseTemplate(fmt.Sprintf("examples[%d].assistant", i), ex.Assistant)
		if err != nil {
			return nil, err
		}
		a.examples = append(a.examples, exampleTemplates{user: user, assistant: assistant})
	}

	if len(p.Links) > 0 {
		var b strings.Builder
		b.WriteString(linkCatalogHeader)
		for _, link := range p.Links {
			b.WriteString("\n- ")
			b.WriteString(link)
		}
		a.links = b.String()
	}

	return a, nil
}

// parseTemplate parses text and renders it once so errors surface at startup.
func parseTemplate(name, text string) (*template.Template, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("persona %s: %w", name, err)
	}
	if err := tmpl.Execute(&strings.Builder{}, promptData{Name: "test"}); err != nil {
		return nil, fmt.Errorf("persona %s: %w", name, err)
	}
	return tmpl, nil
}

func render(tmpl *template.Template, name string) string {
	var b strings.Builder
	// Templates were executed against the same data shape in parseTemplate.
	_ = tmpl.Execute(&b, promptData{Name: name})
	return b.String()
}

// Build returns: the system directive, the worked examples, the history in
// order, then the new user text.
func (a *Assembler) Build(name string, history []Turn, newUserText string) []providers.Message {
	messages := make([]providers.Message, 0, 2+2*len(a.examples)+len(history))

	directive := render(a.directive, name)
	if a.links != "" {
		directive += "\n\n" + a.links
	}
	messages = append(messages, providers.Message{Role: providers.RoleSystem, Content: directive})

	for _, ex := range a.examples {
		messages = append(messages,
			providers.Message{Role: providers.RoleUser, Content: render(ex.user, name)},
			providers.Message{Role: providers.RoleAssistant, Content: render(ex.assistant, name)},
		)
	}

	for _, turn := range history {
		role := providers.RoleUser
		if turn.Role == RoleAssistant {
			role = providers.RoleAssistant
		}
		messages = append(messages, providers.Message{Role: role, Content: turn.Text})
	}

	return append(messages, providers.Message{Role: providers.RoleUser, Content: newUserText})
}
