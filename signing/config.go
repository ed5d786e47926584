package signing

// Config describes how to activate the signing middleware. When Keyfile is
// empty the middleware is not installed and every call passes through
// untouched, per spec: the extension is active only when the proxy is
// configured with a keyfile and password.
type Config struct {
	Keyfile    string
	Passphrase string
}

// Load decrypts the configured keyfile once at startup. Startup is expected
// to abort the process on error, per the proxy's initialization-error
// handling: keyfile decrypt failures are not recoverable at runtime.
func Load(cfg Config) (*Key, error) {
	return LoadKeyfile(cfg.Keyfile, cfg.Passphrase)
}
