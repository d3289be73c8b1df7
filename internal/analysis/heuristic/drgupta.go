package heuristic

import "regexp"

const (
	emergencyReply = "These symptoms may be serious. If this is an emergency, please call your local emergency number now. " +
		"Can you confirm your location and whether someone can call emergency services for you?"
	summaryReply = "Thank you — based on what you've shared I have a clearer picture. I can suggest next steps or ask more focused questions; " +
		"would you like guidance on self-care, or should I ask about recent vitals (temperature, blood pressure) and see if urgent care is advised?"
	moreDetailReply = "Thanks for the information. Could you provide any additional details such as onset, severity, or associated symptoms so I can help further?"
)

// summaryThreshold is the number of filled slots after which questioning stops.
const summaryThreshold = 4

var redFlagPattern = regexp.MustCompile(`\b(chest pain|severe chest|difficulty breathing|shortness of breath|unconscious|faint|severe bleeding|shock|sudden weakness|stroke|slurred speech)\b`)

var painPattern = regexp.MustCompile(`\b(pain|ache|sore|hurt)\b`)

// clinicalSlot is one piece of the history-taking checklist.
type clinicalSlot struct {
	name     string
	question string
	filled   *regexp.Regexp // user text that answers the slot
	asked    *regexp.Regexp // bot text showing the question was already put
	requires *regexp.Regexp // optional precondition on user text
}

// clinicalSlots is ordered by question priority.
var clinicalSlots = []clinicalSlot{
	{
		name:     "onset",
		question: "When did these symptoms start?",
		filled:   regexp.MustCompile(`\b(onset|when did|started|since)\b|\b\d+\s*(hours|hour|days|day|weeks|week|months|month)\b`),
		asked:    regexp.MustCompile(`when did`),
	},
	{
		name:     "duration",
		question: "How long have you been experiencing them?",
		filled:   regexp.MustCompile(`\b(day|days|week|weeks|month|months|hours|hour)\b`),
		asked:    regexp.MustCompile(`how long`),
	},
	{
		name:     "severity",
		question: "How severe would you rate the symptoms on a scale of 1 to 10?",
		filled:   regexp.MustCompile(`\b([1-9]0?|mild|moderate|severe|intense)\b|severity|scale of`),
		asked:    regexp.MustCompile(`how severe|rate the symptoms|on a scale of`),
	},
	{
		name:     "location",
		question: "Where exactly is the pain or discomfort located?",
		filled:   regexp.MustCompile(`\b(left|right|upper|lower|stomach|chest|abdomen|head|back|arm|leg|throat|neck|jaw)\b`),
		asked:    regexp.MustCompile(`where exactly|where is the pain|location of the pain`),
		requires: painPattern,
	},
	{
		name:     "associated",
		question: "Are you experiencing any other symptoms such as fever, cough, nausea, or shortness of breath?",
		filled:   regexp.MustCompile(`\b(fever|cough|nausea|vomit|dizzy|shortness of breath|rash|bleed|swelling|diarrhea|vomiting)\b`),
		asked:    regexp.MustCompile(`any other symptoms|are you experiencing any other|associated symptoms|fever, cough`),
	},
	{
		name:     "history",
		question: "Do you have any relevant medical history, allergies, or current medications?",
		filled:   regexp.MustCompile(`\b(history|diabetes|hypertension|medication|allergy|allergies|asthma|cancer|surgery)\b`),
		asked:    regexp.MustCompile(`medical history|current medications|allergies|do you have any relevant`),
	},
}

func replyDrGupta(t turn) string {
	said := t.withHistory()
	if redFlagPattern.MatchString(said) {
		return emergencyReply
	}

	filled := 0
	next := ""
	for _, slot := range clinicalSlots {
		if slot.filled.MatchString(said) {
			filled++
			continue
		}
		if next != "" || slot.asked.MatchString(t.botTurns) {
			continue
		}
		if slot.requires != nil && !slot.requires.MatchString(said) {
			continue
		}
		next = slot.question
	}

	if filled >= summaryThreshold {
		return summaryReply
	}
	if next == "" {
		return moreDetailReply
	}
	return next
}
