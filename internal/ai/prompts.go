package ai

import "fmt"

const (
	suggestSystemPrompt = "You are Spren, a helpful command-line assistant. Respond only in the specified format."
	explainSystemPrompt = "You are Spren, a helpful command-line assistant. Provide clear and concise explanations."
)

func buildCommandPrompt(shellName, query string) string {
	return fmt.Sprintf(`Convert to a %s command: %s

Reply ONLY in this exact format (2 lines, no explanation):
DANGEROUS:false
COMMAND:your_command_here

Set DANGEROUS:true only for destructive commands (rm -rf, format, dd, etc).`, shellName, query)
}

func buildErrorPrompt(shellName, command, stdout, stderr string) string {
	return fmt.Sprintf("Analyze briefly. %s command: %s\nOutput: %s\nError: %s\nOne short paragraph max.",
		shellName, command, stdout, stderr)
}

// FixQuery phrases a failed run as a fresh suggestion request, so fix
// attempts flow through the same suggest path as original queries.
func FixQuery(command, stdout, stderr string) string {
	return fmt.Sprintf("Command '%s' failed.\nOutput: %s\nError: %s\nProvide a fixed command.",
		command, stdout, stderr)
}
