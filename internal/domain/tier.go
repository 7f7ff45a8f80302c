package domain

// TierClass splits the model registry into capability classes.
type TierClass string

const (
	TierStandard TierClass = "standard"
	TierPro      TierClass = "pro"
)

// ModelTier is one named generative-model configuration. DailyQuota is the
// per-tier request ceiling inside one daily window.
type ModelTier struct {
	Key        string    `json:"key"`
	Model      string    `json:"model"`
	DailyQuota int       `json:"daily_quota"`
	Class      TierClass `json:"class"`
}

// DefaultTiers returns the static four-entry registry in priority order.
// Order matters: tier selection walks each class in this sequence, and the
// degrade-to-error path returns the first entry.
func DefaultTiers() []ModelTier {
	return []ModelTier{
		{Key: "flash", Model: "gemini-2.0-flash", DailyQuota: 200, Class: TierStandard},
		{Key: "flash-lite", Model: "gemini-2.0-flash-lite", DailyQuota: 1500, Class: TierStandard},
		{Key: "pro", Model: "gemini-1.5-pro", DailyQuota: 50, Class: TierPro},
		{Key: "pro-exp", Model: "gemini-2.0-pro-exp", DailyQuota: 25, Class: TierPro},
	}
}
