package session

import (
	"strings"
	"testing"

	"mercator-hq/relay/pkg/providers"
)

func TestAssembler_DefaultPersona(t *testing.T) {
	a, err := NewAssembler(Persona{})
	if err != nil {
		t.Fatalf("NewAssembler() error = %v", err)
	}

	history := []Turn{
		{Role: RoleUser, Text: "hi"},
		{Role: RoleAssistant, Text: "hello Ada"},
	}
	got := a.Build("Ada", history, "how are you")

	want := []providers.Message{
		{Role: providers.RoleSystem, Content: "You are a bot designed to answer questions for Ada"},
		{Role: providers.RoleUser, Content: "Where is Paris?"},
		{Role: providers.RoleAssistant, Content: "Paris is in France Ada, what else can I help you with?"},
		{Role: providers.RoleUser, Content: "hi"},
		{Role: providers.RoleAssistant, Content: "hello Ada"},
		{Role: providers.RoleUser, Content: "how are you"},
	}

	if len(got) != len(want) {
		t.Fatalf("got %d messages, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("message %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestAssembler_Deterministic(t *testing.T) {
	a, _ := NewAssembler(Persona{Links: []string{"https://example.com/a"}})
	history := []Turn{{Role: RoleUser, Text: "x"}, {Role: RoleAssistant, Text: "y"}}

	first := a.Build("Bo", history, "z")
	for range 10 {
		again := a.Build("Bo", history, "z")
		if len(again) != len(first) {
			t.Fatal("message count changed between builds")
		}
		for i := range first {
			if again[i] != first[i] {
				t.Fatalf("message %d differs between builds", i)
			}
		}
	}
}

func TestAssembler_LinkCatalog(t *testing.T) {
	links := []string{
		"Docs: https://example.com/docs?ref=bot&x=1",
		"Shop: https://example.com/shop",
	}
	a, err := NewAssembler(Persona{Directive: "Help {{.Name}}.", Links: links})
	if err != nil {
		t.Fatalf("NewAssembler() error = %v", err)
	}

	system := a.Build("Cy", nil, "q")[0]
	if !strings.HasPrefix(system.Content, "Help Cy.") {
		t.Errorf("directive not rendered: %q", system.Content)
	}
	for _, link := range links {
		if !strings.Contains(system.Content, link) {
			t.Errorf("link %q not embedded verbatim", link)
		}
	}
	if !strings.Contains(system.Content, "Never alter") {
		t.Error("directive does not forbid altering links")
	}
}

func TestAssembler_NoExamples(t *testing.T) {
	a, _ := NewAssembler(Persona{Examples: []Example{}})

	got := a.Build("Di", nil, "hello")
	if len(got) != 2 {
		t.Fatalf("got %d messages, want directive and user turn", len(got))
	}
	if got[1].Content != "hello" || got[1].Role != providers.RoleUser {
		t.Errorf("last message = %+v", got[1])
	}
}

func TestAssembler_NameIsNotInterpreted(t *testing.T) {
	a, _ := NewAssembler(Persona{})

	got := a.Build("{{.Name}} <b>", nil, "q")
	if got[0].Content != "You are a bot designed to answer questions for {{.Name}} <b>" {
		t.Errorf("name was interpreted or escaped: %q", got[0].Content)
	}
}

func TestNewAssembler_InvalidTemplate(t *testing.T) {
	tests := []Persona{
		{Directive: "Hello {{.Name"},
		{Directive: "Hello {{.Nickname}}"},
		{Examples: []Example{{User: "{{if}}", Assistant: "ok"}}},
	}
	for _, p := range tests {
		if _, err := NewAssembler(p); err == nil {
			t.Errorf("NewAssembler(%+v) succeeded, want error", p)
		}
	}
}
