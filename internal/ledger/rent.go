package ledger

// AccountStorageOverhead is charged on top of the data length of every account.
const AccountStorageOverhead = 128

// RentPolicy prices the rent-exempt minimum a payer must fund on allocation.
// A zero policy makes allocation free.
type RentPolicy struct {
	LamportsPerByteYear uint64 `yaml:"lamports_per_byte_year" env:"LAMPORTS_PER_BYTE_YEAR"`
	ExemptionYears      uint64 `yaml:"exemption_years" env:"EXEMPTION_YEARS"`
}

var DefaultRentPolicy = RentPolicy{LamportsPerByteYear: 3480, ExemptionYears: 2}

func (r RentPolicy) MinimumBalance(space int) uint64 {
	if space < 0 {
		space = 0
	}
	return uint64(AccountStorageOverhead+space) * r.LamportsPerByteYear * r.ExemptionYears
}
