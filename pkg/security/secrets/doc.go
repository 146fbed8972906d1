/*
Package secrets loads credentials from the environment and from mounted
secret files.

Configuration values may reference secrets as ${secret:name}. The Manager
tries each provider in order:

	env := secrets.NewEnvProvider(secrets.DefaultEnvPrefix)
	files, err := secrets.NewFileProvider("/run/secrets", true)
	if err != nil {
		return err
	}
	defer files.Close()

	manager := secrets.NewManager(
		[]secrets.SecretProvider{files, env},
		secrets.CacheConfig{Enabled: true, TTL: 5 * time.Minute, MaxSize: 64},
	)

	apiKey := manager.Credential("${secret:openai-api-key}")

A Credential is resolved per request. When the file provider sees the secret
file change it clears both its own cache and the manager's, so the next
completion request carries the rotated key.

Secret values are never logged; names are logged redacted.
*/
package secrets
