package chat

// Session holds the per-connection flags a client can toggle.
// The zero value is the state of a freshly connected client.
type Session struct {
	UseExternalModel    bool `json:"useExternalModel"`
	MedicalConsentGiven bool `json:"medicalConsentGiven"`
}
