package domain

// Config carries the runtime settings the gate and handlers depend on.
type Config struct {
	SitePassword  string `yaml:"sitePassword"`
	AdminPassword string `yaml:"adminPassword"`
	Production    bool   `yaml:"production"`
	PageSize      int    `yaml:"pageSize"`
	ContentFile   string `yaml:"contentFile"`
}
