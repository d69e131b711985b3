package chat

import "strings"

// SystemPrompt frames every turn. The retrieved context block is appended after it.
const SystemPrompt = "You are the intelligent assistant for Vito's Pizza Cafe, well-versed in the company background, " +
	"account management, menus and orders, delivery and pickup, dining, and payment information. Please provide users " +
	"with precise answers regarding registration, login, order inquiries, placing orders, discounts, and refund policies, " +
	"always offering help in a friendly and professional tone and responding in the language used in the user's query. " +
	"For questions beyond the above scope, please inform the user that you can only provide information related to the " +
	"aforementioned services, and suggest that they contact the in-store staff or visit the official website for further " +
	"assistance. Use the following content as the knowledge you have learned, enclosed within <context></context> XML tags. " +
	"When you need to reference the content in the context, please use the original text without any arbitrary " +
	"modifications, including URL addresses, etc."

const (
	// NoContextBlock stands in for retrieved context when nothing relevant was found.
	NoContextBlock = "<context>\nNo relevant context found from the knowledge base.\n</context>"

	ApologyMessage = "I apologize, but I encountered an error while processing your request. " +
		"Please try again or contact our support team."

	IncompleteMessage = "I'm sorry, but I could not complete your request within the allowed number of steps. " +
		"Please try rephrasing or simplifying your question."

	InputBlockedMessage = "I apologize, but unsafe content was detected in the input. " +
		"For security reasons, I cannot process this request."

	OutputBlockedMessage = "I apologize, but unsafe content was detected in the output. " +
		"For security reasons, I cannot provide this response."
)

func contextBlock(passages []string) string {
	if len(passages) == 0 {
		return NoContextBlock
	}
	return "<context>\n" + strings.Join(passages, "\n") + "\n</context>"
}

func systemTurn(block string) string {
	return SystemPrompt + "\n\n" + block
}
