// Package openai implements the provider adapter for OpenAI-compatible chat
// completion endpoints (POST {base_url}/chat/completions).
//
// # Basic Usage
//
//	provider, err := openai.NewProvider(providers.ProviderConfig{
//	    BaseURL:     "https://api.openai.com/v1",
//	    Credentials: providers.StaticCredential(os.Getenv("OPENAI_TOKEN")),
//	})
//	if err != nil {
//	    return err
//	}
//	defer provider.Close()
//
//	resp, err := provider.SendCompletion(ctx, &providers.CompletionRequest{
//	    Model:     "gpt-3.5-turbo",
//	    MaxTokens: 128,
//	    Messages:  []providers.Message{{Role: "user", Content: "Where is Paris?"}},
//	})
//
// Responses with no choices or with blank content are returned as
// *providers.ParseError.
package openai
