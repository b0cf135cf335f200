package transport

const (
	MethodHealthCheck   = "health_check"
	MethodProgramInvoke = "program.invoke"
	MethodProgramRecord = "program.get_record"
	MethodProgramInfo   = "program.info"
	MethodLedgerBalance = "ledger.get_balance"
	MethodLedgerAccount = "ledger.get_account"
	MethodLedgerAirdrop = "ledger.airdrop"
)
