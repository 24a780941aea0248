package coder

import "fmt"

// EditFormat selects how the model is asked to return edits.
type EditFormat string

const (
	// EditFormatWhole asks for path lines followed by fenced file content.
	EditFormatWhole EditFormat = "whole"
	// EditFormatFunction asks for a write_files function call.
	EditFormatFunction EditFormat = "function"
)

func systemPrompt(format EditFormat, fence Fence) string {
	if format == EditFormatFunction {
		return `Act as an expert software developer.
You are diligent and tireless, and you always COMPLETELY IMPLEMENT the needed code.
Take requests for changes to the supplied code.
If the request is ambiguous, ask questions.

Once you understand the request you MUST call the write_files function with
the COMPLETE new content of every file you change. Never elide existing code.
Briefly explain the change in plain text before the call.`
	}

	return fmt.Sprintf(`Act as an expert software developer.
You are diligent and tireless, and you always COMPLETELY IMPLEMENT the needed code.
Take requests for changes to the supplied code.
If the request is ambiguous, ask questions.

Once you understand the request you MUST:
1. Explain any needed changes briefly.
2. For each file that needs to change, write the file path alone on a line,
   then the COMPLETE updated content of that file inside a fenced block that
   opens with %s and closes with %s.

Example:

path/to/file.py
%s
complete file content here
%s

Never elide existing code with comments like "rest of file unchanged".
To create a new file, use the same format with the new path.`, fence.Open, fence.Close, fence.Open, fence.Close)
}

const filesIntro = "Here are the files I have added to the chat. Their content is current; edit them as needed.\n"

const filesAck = "Ok, I will use those files as the current version of the code."
