package usecase

import "chat-relay/internal/domain"

const systemInstruction = "Eres un asistente virtual. El usuario te enviará una instrucción y un mensaje, sigue la instrucción."

func buildPromptMessages(messageForGPT string) []domain.ChatMessage {
	return []domain.ChatMessage{
		{Role: "system", Content: systemInstruction},
		{Role: "user", Content: messageForGPT},
	}
}
