package ai

import (
	"fmt"
	"strings"
)

// Sampling parameters for the two model calls.
const (
	ChatModel = "gpt-4"

	ResponseMaxTokens   = 500
	ResponseTemperature = 0.8

	BlogMaxTokens   = 2000
	BlogTemperature = 0.7
)

// InterviewerSystemPrompt is the fixed persona for the conversational side
// of the app: a warm interviewer that draws out one memory at a time.
const InterviewerSystemPrompt = `You are Memory Keeper AI, a friendly, warm, and empathetic assistant designed to help grandparents preserve their precious memories. Your role is to:

1. Ask thoughtful, guided questions about their life experiences
2. Show genuine interest and empathy in their stories
3. Follow up on interesting details they share
4. Help them explore different aspects of their life (childhood, family, career, life lessons, memorable events)
5. Create a comfortable, conversational atmosphere
6. Remember context from previous messages in the conversation

Guidelines:
- Be warm, patient, and encouraging
- Ask one question at a time
- Show genuine curiosity about their experiences
- Use follow-up questions to dive deeper into interesting stories
- Be respectful of their privacy and comfort level
- If they seem hesitant, gently encourage but don't pressure
- Celebrate their memories and experiences`

// BlogSystemPrompt frames the compile call.
const BlogSystemPrompt = "You are a skilled writer who creates beautiful, engaging blog posts from personal conversations."

// BuildBlogPrompt renders a session transcript into the structured-output
// prompt for the Memory Compiler. Each line is "SENDER: message".
func BuildBlogPrompt(transcript []string) string {
	var b strings.Builder
	b.WriteString("Transform this conversation into a beautiful, well-structured blog post that captures the essence of the memories shared.\n\n")
	b.WriteString("Conversation:\n")
	b.WriteString(strings.Join(transcript, "\n"))
	b.WriteString("\n\nPlease create:\n")
	b.WriteString("1. A compelling title\n")
	b.WriteString("2. A brief introduction\n")
	b.WriteString("3. Well-organized sections based on the topics discussed\n")
	b.WriteString("4. A meaningful conclusion\n")
	b.WriteString("5. Suggested tags\n")
	b.WriteString("6. A summary\n\n")
	b.WriteString("Format the response as JSON with the following structure:\n")
	b.WriteString(`{
  "title": "Blog title",
  "content": "Full blog content in markdown format",
  "summary": "Brief summary",
  "tags": ["tag1", "tag2", "tag3"],
  "excerpt": "Short excerpt for preview"
}`)
	return b.String()
}

// TranscriptLine formats one message for the blog prompt.
func TranscriptLine(sender, message string) string {
	return fmt.Sprintf("%s: %s", sender, message)
}
