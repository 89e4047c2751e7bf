package main

type config struct {
	BaseURL  string `mapstructure:"base_url"`
	Secret   string `mapstructure:"secret"`
	AuthorID int64  `mapstructure:"author_id"`
	Username string `mapstructure:"username"`
	StartIID int64  `mapstructure:"start_iid"`
	Interval string `mapstructure:"interval"`
}
