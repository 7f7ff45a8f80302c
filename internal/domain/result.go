package domain

// ProcessingMode tags which classification path produced a result. It exists
// for observability only and carries no behavioral contract.
type ProcessingMode string

const (
	ModeGemini    ProcessingMode = "gemini"
	ModeFallback  ProcessingMode = "fallback"
	ModeRuleBased ProcessingMode = "rule-based-fallback"
	ModeBlocked   ProcessingMode = "blocked-notification-prompt"
)

// UI side-effect signals attached to results.
const (
	UISwitchView = "switch_view"
	UISortCards  = "sort_cards"

	ViewModeTable = "table"
	ViewModeCards = "cards"

	SortByName     = "name"
	SortByInactive = "inactive"
	SortByLastUsed = "last_used"
)

// Result is the uniform payload every entry point hands back to the UI layer.
// The chat surface always receives one of these, never a raw error.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`

	Todos       []Todo       `json:"todos,omitempty"`
	Todo        *Todo        `json:"todo,omitempty"`
	CreditCards []CreditCard `json:"credit_cards,omitempty"`
	CreditCard  *CreditCard  `json:"credit_card,omitempty"`
	Insights    *Insights    `json:"insights,omitempty"`

	DeletedCount   int `json:"deletedCount,omitempty"`
	UpdatedCount   int `json:"updatedCount,omitempty"`
	CompletedCount int `json:"completedCount,omitempty"`
	CreatedCount   int `json:"createdCount,omitempty"`
	FailedCount    int `json:"failedCount,omitempty"`

	UIAction string `json:"ui_action,omitempty"`
	ViewMode string `json:"view_mode,omitempty"`
	SortBy   string `json:"sort_by,omitempty"`

	ProcessingMode ProcessingMode `json:"processingMode,omitempty"`
}

// SoftFailure builds the non-throwing {success:false, message} shape used for
// recognized-but-unsupported phrasings and zero-match deletes.
func SoftFailure(message string) Result {
	return Result{Success: false, Message: message}
}
