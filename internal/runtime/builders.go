package runtime

import "hello-solana/go-backend/internal/domains/program/model"

// NewInitializeTransaction builds and signs the initialize call with the
// canonical account order: payer, record, system program.
func NewInitializeTransaction(programID model.Address, payer, record Signer, hello, nonce string) Transaction {
	tx := Transaction{
		Instruction: Instruction{
			ProgramID: programID,
			Accounts: []AccountRef{
				{Address: payer.Address(), Signer: true, Writable: true},
				{Address: record.Address(), Signer: true, Writable: true},
				{Address: model.SystemProgramID},
			},
			Data: EncodeInitializeData(hello),
		},
		Nonce: nonce,
	}
	tx.Sign(payer, record)
	return tx
}

// NewTransferTransaction builds and signs a transfer from the signer to to.
func NewTransferTransaction(programID model.Address, from Signer, to model.Address, amount uint64, nonce string) Transaction {
	tx := Transaction{
		Instruction: Instruction{
			ProgramID: programID,
			Accounts: []AccountRef{
				{Address: from.Address(), Signer: true, Writable: true},
				{Address: to, Writable: true},
				{Address: model.SystemProgramID},
			},
			Data: EncodeTransferData(amount),
		},
		Nonce: nonce,
	}
	tx.Sign(from)
	return tx
}
