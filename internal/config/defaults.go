package config

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel: "info",
		},
		Telegram: TelegramConfig{
			Token:     "",
			ParseMode: "HTML",
			Transport: "polling",
			Webhook: WebhookConfig{
				Addr: ":8080",
				Path: "/webhook",
			},
			PollTimeout:            30,
			UploadVideoBytes:       false,
			ErrorMessageTTLSeconds: 5,
		},
		Resolver: ResolverConfig{
			APIBase:        "https://x-video-dl.pages.dev/api/twitter",
			TimeoutSeconds: 60,
		},
		Links: LinksConfig{
			Domains:    []string{"twitter.com", "x.com"},
			ShortHosts: []string{"t.co"},
		},
		Metrics: MetricsConfig{
			Enabled:  false,
			Endpoint: "/metrics",
		},
	}
}
