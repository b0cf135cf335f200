package contracts

import contractports "hello-solana/go-backend/internal/domains/contracts/ports"

type ProgramAPI = contractports.ProgramAPI
type LedgerAPI = contractports.LedgerAPI
type NodeService = contractports.NodeService
type CategorizedError = contractports.CategorizedError
