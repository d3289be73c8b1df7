package heuristic

import "fmt"

var crisisKeywords = []string{
	"suicide", "kill myself", "end my life", "want to die", "hurting myself",
	"harm myself", "i cant go on", "i can't go on", "i cant take it",
}

// feelingWords are scanned in order; the first hit is reflected back.
var feelingWords = []string{
	"sad", "lonely", "anxious", "anxiety", "stressed", "overwhelmed",
	"depressed", "hopeless", "angry", "upset", "tearful", "hurt",
}

var stressHints = []string{"stress", "busy", "tired", "burnout", "overwork", "panic", "panic attack"}

const (
	crisisReply = "I'm really sorry you're feeling this way. If you're in immediate danger or might hurt yourself, please contact your local emergency services or a crisis line right now. " +
		"If you can, tell me whether you're safe at this moment and if someone is nearby who can help — I can also help find crisis resources in your area."
	zoyaGreeting  = "Hi — I'm Zoya. I'm here to listen whenever you're ready. What's been on your mind lately?"
	zoyaHelp      = "I'm here for a heart-to-heart. You can tell me anything — no judgement. Would you like to talk about what's been most heavy for you right now?"
	zoyaQuestion  = "That's a thoughtful question — take your time. Would you like my perspective or would you prefer I just listen and reflect what you're saying?"
	zoyaGrounding = "That sounds really stressful. When it feels overwhelming, some people try a few grounding steps — breathe slowly for a minute, notice five things you can see, " +
		"and try to name one small thing that feels manageable. Would you like some ideas tailored to your situation?"
	zoyaSeekingSupport = "It can be really brave to seek support. I can help you think through what to look for in a therapist, how to start the conversation, or find resources. What would help most right now?"
	zoyaDefault        = "Thank you for trusting me with this. I'm here to support you — tell me more about what you're feeling or what happened, and we'll take it one step at a time."
)

// FeelingReflection is the reply template used when a feeling word is found.
const FeelingReflection = "I hear that you're feeling %s. That sounds really difficult — would you like to tell me more about what's been happening or when this started?"

func replyZoya(t turn) string {
	if t.mentions(crisisKeywords...) {
		return crisisReply
	}
	if t.isGreeting() {
		return zoyaGreeting
	}
	if feeling, ok := t.firstMention(feelingWords); ok {
		return fmt.Sprintf(FeelingReflection, feeling)
	}
	if t.mentions("help") {
		return zoyaHelp
	}
	if t.isQuestion() {
		return zoyaQuestion
	}
	if t.mentions(stressHints...) {
		return zoyaGrounding
	}
	if t.mentions("therap", "counsel", "doctor", "psych") {
		return zoyaSeekingSupport
	}
	return zoyaDefault
}
