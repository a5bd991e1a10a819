package models

// WasteClassification is the gateway's verdict on a garbage photo
type WasteClassification struct {
	IsWaste     bool    `json:"isWaste"`
	WasteType   string  `json:"wasteType"`
	Urgency     Urgency `json:"urgency"`
	Confidence  float64 `json:"confidence"`
	Description string  `json:"description"`
}

// DeadAnimalClassification is the gateway's verdict on a dead-animal photo
type DeadAnimalClassification struct {
	IsDeadAnimal bool    `json:"isDeadAnimal"`
	AnimalType   string  `json:"animalType,omitempty"`
	Urgency      Urgency `json:"urgency"`
	Confidence   float64 `json:"confidence"`
	Description  string  `json:"description"`
}

// CleanupVerification compares the before and after photos of a complaint
type CleanupVerification struct {
	Verified bool    `json:"verified"`
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// ChatRole identifies the author of a conversation turn
type ChatRole string

const (
	// ChatRoleUser marks a message written by the citizen
	ChatRoleUser ChatRole = "user"
	// ChatRoleAssistant marks a reply produced by the assistant
	ChatRoleAssistant ChatRole = "assistant"
)

// IsValid reports whether r is a role the assistant accepts in history
func (r ChatRole) IsValid() bool {
	switch r {
	case ChatRoleUser, ChatRoleAssistant:
		return true
	}
	return false
}

// ChatTurn is one prior message passed back to the assistant; nothing is stored server-side
type ChatTurn struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// AsAnalysis converts a classification into the schema-flexible form stored on a complaint
func (w WasteClassification) AsAnalysis() AIAnalysis {
	return AIAnalysis{
		"isWaste":     w.IsWaste,
		"wasteType":   w.WasteType,
		"urgency":     string(w.Urgency),
		"confidence":  w.Confidence,
		"description": w.Description,
	}
}

// AsAnalysis converts a classification into the schema-flexible form stored on a complaint
func (d DeadAnimalClassification) AsAnalysis() AIAnalysis {
	analysis := AIAnalysis{
		"isDeadAnimal": d.IsDeadAnimal,
		"urgency":      string(d.Urgency),
		"confidence":   d.Confidence,
		"description":  d.Description,
	}
	if d.AnimalType != "" {
		analysis["animalType"] = d.AnimalType
	}
	return analysis
}
