package service

// sqlite models

type Instance struct {
	Id                 uint64 `gorm:"primaryKey" json:"id"`
	Stage              uint64 `json:"stage"`
	DesignatedReporter string `json:"designated_reporter"`
	ReporterAddress    string `json:"reporter_address"`
	ReportPass         uint64 `json:"report_pass"`
	ReportFail         uint64 `json:"report_fail"`
	ChallengerAddress  string `json:"challenger_address"`
	ChallengePass      uint64 `json:"challenge_pass"`
	ChallengeFail      uint64 `json:"challenge_fail"`
	DisputeHandle      string `json:"dispute_handle"`
	FinalPass          uint64 `json:"final_pass"`
	FinalFail          uint64 `json:"final_fail"`
	Prevailed          uint64 `json:"prevailed"`
	ChallengeDeadline  int64  `json:"challenge_deadline"`
	SettlementDeadline int64  `json:"settlement_deadline"`
	CreateTimestamp    int64  `json:"create_timestamp"`
	FinalizeTimestamp  int64  `json:"finalize_timestamp"`
	Archived           bool   `json:"archived"`
}

type Transition struct {
	Id        uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Instance  uint64 `json:"instance"`
	FromStage uint64 `json:"from_stage"`
	ToStage   uint64 `json:"to_stage"`
	Op        string `json:"op"`
	Caller    string `json:"caller"`
	At        int64  `json:"at"`
}

type BondRow struct {
	Id       string `gorm:"primaryKey" json:"id"`
	Instance uint64 `json:"instance"`
	Owner    string `json:"owner"`
	Amount   uint64 `json:"amount"`
	Status   string `json:"status"`
	PaidTo   string `json:"paid_to"`
	At       int64  `json:"at"`
}
