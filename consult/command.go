package consult

type CommandKind string

const (
	CmdView             CommandKind = "view"
	CmdSubmitAnswer     CommandKind = "submit_answer"
	CmdCommit           CommandKind = "commit"
	CmdRedraft          CommandKind = "redraft"
	CmdStartNegotiation CommandKind = "start_negotiation"
	CmdSendMessage      CommandKind = "send_message"
	CmdEndNegotiation   CommandKind = "end_negotiation"
)

// Command is one user action. Only the fields its Kind uses are read.
type Command struct {
	Kind CommandKind
	Text string
	MOQ  int
	// Category filters the log in the returned view; empty means show all.
	Category string
}

func Refresh(category string) Command { return Command{Kind: CmdView, Category: category} }

func SubmitAnswer(text string) Command { return Command{Kind: CmdSubmitAnswer, Text: text} }

func Commit() Command { return Command{Kind: CmdCommit} }

func Redraft() Command { return Command{Kind: CmdRedraft} }

func StartNegotiation(moq int) Command { return Command{Kind: CmdStartNegotiation, MOQ: moq} }

func SendMessage(text string) Command { return Command{Kind: CmdSendMessage, Text: text} }

func EndNegotiation() Command { return Command{Kind: CmdEndNegotiation} }
