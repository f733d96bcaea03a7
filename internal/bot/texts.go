package bot

// Reply-keyboard labels double as commands.
const (
	ButtonSetMessage = "📝 Set Message"
	ButtonSendSingle = "📱 Send Single SMS"
	ButtonSendBulk   = "📲 Send Bulk SMS"
)

// Callback data.
const (
	CallbackConfirmSend    = "confirm_send"
	CallbackCancelSend     = "cancel_send"
	CallbackConfirmMessage = "confirm_message"
	CallbackCancelMessage  = "cancel_message"
	CallbackConfirmBulk    = "confirm_bulk"
	CallbackCancelBulk     = "cancel_bulk"
)

const (
	textWelcome = "Welcome to SMS Sender Bot! 📱\n\n" +
		"How to use:\n" +
		"1️⃣ First, click '" + ButtonSetMessage + "' to set your SMS text\n" +
		"2️⃣ Then choose either:\n" +
		"   • '" + ButtonSendSingle + "' for one recipient\n" +
		"   • '" + ButtonSendBulk + "' for multiple recipients\n\n" +
		"Your message will be saved until you set a new one.\n" +
		"The company name will automatically appear at the top of each message."

	textHelp = "Available commands:\n" +
		"/send <phone_number> - Send SMS to a single number\n" +
		"/bulk_send - Send SMS to multiple numbers\n" +
		"/set_message <message> - Set a default message\n" +
		"/cancel - Cancel the current operation"

	textSendUsage       = "Please provide a phone number: /send <phone_number>\nExample: /send +1234567890"
	textSendConfirm     = "You are about to send the following message to %s:\n\n%s\n\nDo you want to proceed?"
	textSendCancelled   = "SMS sending cancelled."
	textSendMissing     = "❌ Error: Missing phone number or message."
	textSetMessageUsage = "Please provide a message: /set_message <your message>\nExample: /set_message Hello from SMS Bot!"
	textMessageTooLong  = "Message too long. Please keep it under %d characters."
	textMessageConfirm  = "You have set the message to:\n\n%s\n\nDo you want to confirm this message?"
	textMessageSet      = "✅ Message has been set successfully!"
	textMessageMissing  = "❌ Error: No message to set."
	textMessageCanceled = "Message setting cancelled."

	textButtonSetMessage = "Please send your message using:\n/set_message Your message here"
	textButtonSendSingle = "Please send the number using:\n/send +1234567890"

	textBulkPrompt    = "Please enter phone numbers separated by commas.\nExample: +1234567890, +9876543210"
	textBulkInvalid   = "Invalid numbers found: %s\nPlease try again with valid numbers."
	textBulkNoNumbers = "No valid numbers provided. Please enter valid phone numbers."
	textBulkReady     = "Ready to send to %d numbers.\nWould you like to proceed?"
	textBulkStarted   = "⏳ Sending to %d numbers. Results will follow."
	textBulkNothing   = "No valid numbers to send SMS."
	textBulkFailed    = "❌ Could not start the bulk send. Please try again later."
	textCancelled     = "Operation cancelled."
	textUnknown       = "Unknown command. Use /help to see what I can do."
	textUnauthorized  = "You are not authorized to use this bot."
	textRateLimited   = "Rate limit exceeded. Please try again later."
	textInternalError = "Something went wrong. Please try again."
)
