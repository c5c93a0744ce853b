package entity

type ToolName string

const (
	ToolGetBalance       ToolName = "get_balance"
	ToolGetWalletAddress ToolName = "get_wallet_address"
	ToolSendTransaction  ToolName = "send_transaction"
	ToolFetchQuote       ToolName = "fetch_quote"
	ToolFetchPrice       ToolName = "fetch_price"
	ToolExecuteSwap      ToolName = "execute_swap"
	ToolRequestFunds     ToolName = "request_funds"
)

func (t ToolName) String() string {
	return string(t)
}

type ToolDefinition struct {
	Name        ToolName
	Description string
	Parameters  map[string]interface{}
}

// ToolCall is one function invocation requested by the assistant inside a run.
// Arguments is the raw JSON produced by the model and is not trusted.
type ToolCall struct {
	ID        string
	Name      ToolName
	Arguments string
}

type ToolResult struct {
	CallID string
	Output string
}
