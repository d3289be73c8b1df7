package heuristic

const (
	robinEscalation = "If this is an actual emergency call your local emergency services immediately. Tell me the situation and I'll guide you on immediate safety steps."
	robinGreeting   = "Robin here. What's the emergency or situation you're facing?"
	robinQuestion   = "Stay calm. Describe what's happening and I'll suggest steps."
	robinDefault    = "If someone is in danger, prioritize safety and call emergency services."

	rabindrGreeting = "Greetings — I'm Rabindr. Would you like a poem or a discussion about poetry?"
	rabindrVerse    = "Here's a short verse: 'In whispered winds the stories start, a quiet bloom within the heart.' Would you like more like this?"
	rabindrQuestion = "A question! Let's explore it with a sprinkle of metaphor."
	rabindrDefault  = "Poetry is a conversation with the soul — tell me a word and I'll answer in rhyme."

	genericGreeting  = "Hello! How can I assist you today?"
	genericHowAreYou = "I'm doing well, thanks for asking — I'm here to help. What's on your mind?"
	genericHelp      = "Sure, I am here to help! Please ask your question."
	genericWeather   = "Sorry, I can't provide real-time weather info yet."
	genericQuestion  = "That's an interesting question."
	genericDefault   = "Thanks for sharing!"
)

func replyRobin(t turn) string {
	switch {
	case t.mentions("emergency", "fire", "help"):
		return robinEscalation
	case t.isGreeting():
		return robinGreeting
	case t.isQuestion():
		return robinQuestion
	default:
		return robinDefault
	}
}

func replyRabindr(t turn) string {
	switch {
	case t.isGreeting():
		return rabindrGreeting
	case t.mentions("poem", "verse"):
		return rabindrVerse
	case t.isQuestion():
		return rabindrQuestion
	default:
		return rabindrDefault
	}
}

// replyGeneric serves persona ids the engine has no rule chain for.
func replyGeneric(t turn) string {
	switch {
	case t.isGreeting():
		return genericGreeting
	case t.mentions("how are you"):
		return genericHowAreYou
	case t.mentions("help"):
		return genericHelp
	case t.mentions("weather"):
		return genericWeather
	case t.isQuestion():
		return genericQuestion
	default:
		return genericDefault
	}
}
