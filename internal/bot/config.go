package bot

// BotConfig represents the configuration for the bot
type BotConfig struct {
	// Number of rows shown on the leaderboards
	LeaderboardSize int
	// Width of the slider gauge in cells
	GaugeWidth int
	// Slider step sizes in thousandths of the full travel
	SliderFineStep   int
	SliderCoarseStep int
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() *BotConfig {
	return &BotConfig{
		LeaderboardSize:  10,
		GaugeWidth:       24,
		SliderFineStep:   10,
		SliderCoarseStep: 100,
	}
}
