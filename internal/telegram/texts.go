package telegram

import (
	"fmt"
	"strings"
)

func (b *Bot) helpText() string {
	var sb strings.Builder
	sb.WriteString("Hello there! I'm TeleImage Bot. 🤖\n\n")
	sb.WriteString("I can turn your text descriptions into beautiful images. It's easy to get started!\n\n")
	sb.WriteString("*How to use me:*\n")
	sb.WriteString("Just send me a message with a description of the image you want to create.\n\n")
	sb.WriteString("*For example, you could send:*\n")
	sb.WriteString("- A serene painting of a cherry blossom tree by a river\n")
	sb.WriteString("- A futuristic cityscape with flying cars, neon lights, cinematic\n")
	sb.WriteString("- A photorealistic image of a red panda wearing a tiny chef's hat\n\n")
	sb.WriteString("*Choosing a model:*\n")
	sb.WriteString("Start your message with `/model` or `model:` to pick one:\n")
	for _, alias := range b.models.Aliases() {
		id, _ := b.models.Resolve(alias)
		line := fmt.Sprintf("- `%s` (%s)", alias, id)
		if alias == b.models.DefaultAlias() {
			line += " - default"
		}
		sb.WriteString(line + "\n")
	}
	sb.WriteString("\nI'll get to work and send you back your unique creation. If I ever get stuck, I'll let you know.\n\n")
	sb.WriteString("Let your imagination run wild! What would you like to create first?")
	return sb.String()
}

func promptRequiredText(alias string) string {
	return fmt.Sprintf("✏️ Please provide a prompt after the model name, for example: /%s a lighthouse at dusk", alias)
}
