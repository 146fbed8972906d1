// Package config loads and validates the relay configuration.
//
// Values are applied in this order, later overriding earlier:
//
//  1. Defaults (defaults.go)
//  2. The YAML file, if one is given
//  3. RELAY_SECTION_FIELD environment variables
//  4. OPENAI_TOKEN and TELEGRAM_TOKEN, for credentials still unset
//
// Validation then collects every problem into one ValidationError:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("relay.yaml")
//	if err != nil {
//	    var verr config.ValidationError
//	    if errors.As(err, &verr) {
//	        for _, fe := range verr.Errors {
//	            fmt.Println(fe.Field, fe.Message)
//	        }
//	    }
//	    return err
//	}
//
// Credentials may be written as ${secret:name}; ResolveSecrets resolves
// them through pkg/security/secrets after loading.
//
// Long-running commands call Initialize once and read the result through
// GetConfig.
package config
