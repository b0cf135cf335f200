package models

import "encoding/json"

// AccountMeta is one ordered account reference of an invocation.
type AccountMeta struct {
	Address  string `json:"address"`
	Signer   bool   `json:"signer"`
	Writable bool   `json:"writable"`
}

// Invocation is the tagged request the host dispatches: an operation name, its
// ordered accounts and an operation-specific payload.
type Invocation struct {
	ProgramID string          `json:"program_id,omitempty"`
	Operation string          `json:"operation"`
	Accounts  []AccountMeta   `json:"accounts"`
	Payload   json.RawMessage `json:"payload"`
}

type InitializePayload struct {
	Hello string `json:"hello"`
}

type TransferPayload struct {
	Amount uint64 `json:"amount"`
}

type SignatureEntry struct {
	Address   string `json:"address"`
	Signature string `json:"signature"`
}

// Transaction carries one invocation plus a signature from every signer account.
type Transaction struct {
	Invocation Invocation       `json:"invocation"`
	Nonce      string           `json:"nonce"`
	Signatures []SignatureEntry `json:"signatures"`
}

type InvokeResult struct {
	Signature string `json:"signature"`
	Operation string `json:"operation"`
	ProgramID string `json:"program_id"`
}

type AccountInfo struct {
	Address  string `json:"address"`
	Lamports uint64 `json:"lamports"`
	Owner    string `json:"owner"`
	Space    int    `json:"space"`
}

type Balance struct {
	Address  string `json:"address"`
	Lamports uint64 `json:"lamports"`
}

type RecordView struct {
	Address string `json:"address"`
	Hello   string `json:"hello"`
}

type ProgramInfo struct {
	ProgramID         string `json:"program_id"`
	SystemProgramID   string `json:"system_program_id"`
	Capacity          int    `json:"capacity"`
	Space             int    `json:"space"`
	RentExemptMinimum uint64 `json:"rent_exempt_minimum"`
	FaucetEnabled     bool   `json:"faucet_enabled"`
}

type AirdropResult struct {
	Address  string `json:"address"`
	Lamports uint64 `json:"lamports"`
	Balance  uint64 `json:"balance"`
}
