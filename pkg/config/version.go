package config

import "github.com/xhad/pdfchat/internal/types"

var Version = "0.1.0"

// Runtime flattens the file config into the settings the client reads at run time.
func (c *Config) Runtime() types.Config {
	return types.Config{
		Service: types.ServiceConfig{
			BaseURL:   c.Service.BaseURL,
			Timeout:   c.Service.Timeout,
			UserAgent: c.Service.UserAgent,
		},
		Poll: types.PollConfig{
			Interval: c.Poll.Interval,
		},
		UI: types.UIConfig{
			Color:   c.ColorEnabled(),
			Spinner: c.SpinnerEnabled(),
		},
		Log: types.LogConfig{
			Level:  c.Log.Level,
			Format: c.Log.Format,
		},
	}
}
