package config

// AuthProviderConfig is the raw shape of one external sign-in provider,
// parsed from AUTH_<PROVIDER>_* environment variables. AllowSignUp
// controls whether an unknown external account may provision a new user.
type AuthProviderConfig struct {
	Name         string
	Type         string
	Enabled      bool
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	APIURL       string
	Scopes       []string
	AllowSignUp  bool
}
