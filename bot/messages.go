package bot

import (
	"fmt"
	"strings"
)

// InviteLinkMarker identifies a WhatsApp group invite inside a message body.
const InviteLinkMarker = "chat.whatsapp.com"

// ServiceMessage is the auto-reply sent when a private message mentions a trigger word.
const ServiceMessage = "🌟 MY SERVICES 🌟\n\n" +
	"1. Adsense All Countries Identity & Pin Address Service Available\n\n\n" +
	"Countries We Cover:\n\n" +
	"🇬🇧 UK | 🇺🇸 USA | 🇨🇦 Canada | 🇦🇺 Australia\n\n" +
	"🇮🇪 Ireland | 🇧🇪 Belgium | 🇪🇸 Spain | 🇵🇰 Pakistan | 🇮🇳 India\n\n\n" +
	"📌 PKR 1500: UK, USA, Canada, Australia, Pakistan\n\n" +
	"📌 PKR 2500: India, Ireland, Belgium, Spain\n\n\n" +
	"Contact for quick service!"

const helpHeader = "📱 *BOT COMMANDS* 📱"

var helpLines = []string{
	"!help - Show this menu",
	"!extract - Get numbers from all groups",
	"!creategroup <name> - Create a group with extracted numbers",
	"!sendall - Send a message to all groups",
	"!clearall - Clear chats in all groups",
	"!showlinks - Show all saved group links",
}

// HelpText is the command reference sent by !help.
var HelpText = helpHeader + "\n" + strings.Join(helpLines, "\n")

const (
	msgCreateGroupUsage = "❌ Please specify a group name: !creategroup <name>"
	msgNoNumbers        = "❌ No numbers found. Use !extract first."
	msgSendAllPrompt    = "📩 Reply with the message you want to send to all groups:"
	msgLinksHeader      = "📎 Saved Group Links:\n"
)

func msgUnknownCommand(name string) string {
	return fmt.Sprintf("❌ Unknown command: %s", name)
}

func msgExtracted(n, failedGroups int) string {
	return fmt.Sprintf("✅ Extracted %d numbers. Saved to extracted_numbers.txt.", n) + failedSuffix(failedGroups)
}

func msgGroupCreated(name string, members int) string {
	return fmt.Sprintf("✅ Group \"%s\" created successfully with %d members.", name, members)
}

func msgBroadcastDone(groups, failed int) string {
	return fmt.Sprintf("✅ Message sent to %d groups.", groups) + failedSuffix(failed)
}

func msgCleared(groups, failed int) string {
	return fmt.Sprintf("✅ Cleared chats in %d groups.", groups) + failedSuffix(failed)
}

func msgFailed(what string, err error) string {
	return fmt.Sprintf("❌ Failed to %s: %v", what, err)
}

func failedSuffix(n int) string {
	if n == 0 {
		return ""
	}
	return fmt.Sprintf(" (%d failed)", n)
}
