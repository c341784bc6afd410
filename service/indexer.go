package service

import (
	"context"

	cosmoslog "cosmossdk.io/log"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
	"github.com/veridex/reso-app/types"
)

// Indexer materializes transition and bond events into sqlite for the
// operational query surface. It is observability plumbing: the store stays
// authoritative, and a lost event leaves the index stale, never the engine
// wrong.
type Indexer struct {
	logger        cosmoslog.Logger
	db            *gorm.DB
	events        <-chan types.Event
	eventHandlers map[string]eventHandler
}

type eventHandler func(ctx context.Context, ev types.Event)

func NewIndexer(dbPath string, events <-chan types.Event, logger cosmoslog.Logger) (*Indexer, error) {
	logger = logger.With("module", "indexer")
	logger.Info("NewIndexer", "dbPath", dbPath)
	db, err := gorm.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Instance{}, &Transition{}, &BondRow{}).Error; err != nil {
		return nil, err
	}
	c := &Indexer{
		logger: logger,
		db:     db,
		events: events,
	}
	c.eventHandlers = map[string]eventHandler{
		types.EventCreateType:    c.handleEventCreate,
		types.EventReportType:    c.handleEventReport,
		types.EventChallengeType: c.handleEventChallenge,
		types.EventFinalizeType:  c.handleEventFinalize,
		types.EventEscalateType:  c.handleEventEscalate,
		types.EventVerdictType:   c.handleEventVerdict,
		types.EventArchiveType:   c.handleEventArchive,
		types.EventBondType:      c.handleEventBond,
	}
	return c, nil
}

func (c *Indexer) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-c.events:
			if !ok {
				return
			}
			if h, found := c.eventHandlers[ev.Type()]; found {
				h(ctx, ev)
			}
		}
	}
}

func (c *Indexer) Close() error {
	return c.db.Close()
}

func (c *Indexer) handleEventCreate(ctx context.Context, event types.Event) {
	ev := event.(*types.EventCreate)
	inst := Instance{
		Id:                 ev.Instance,
		Stage:              uint64(types.StageUnreported),
		DesignatedReporter: ev.DesignatedReporter.Hex(),
		CreateTimestamp:    ev.At,
	}
	if err := c.db.Save(&inst).Error; err != nil {
		c.logger.Error("save instance fail", "err", err)
	}
	c.saveTransition(ev.Instance, 0, uint64(types.StageUnreported), "createInstance", "", ev.At)
}

func (c *Indexer) handleEventReport(ctx context.Context, event types.Event) {
	ev := event.(*types.EventReport)
	var inst Instance
	if err := c.db.First(&inst, ev.Instance).Error; err != nil {
		c.logger.Error("get instance fail", "err", err)
		return
	}
	inst.Stage = uint64(types.StageDesignatedReporting)
	inst.ReporterAddress = ev.Reporter.Hex()
	inst.ReportPass = ev.Pass
	inst.ReportFail = ev.Fail
	inst.ChallengeDeadline = ev.ChallengeDeadline
	if err := c.db.Save(&inst).Error; err != nil {
		c.logger.Error("save instance fail", "err", err)
	}
	c.saveTransition(ev.Instance, uint64(types.StageUnreported), inst.Stage, "submitReport", ev.Reporter.Hex(), ev.At)
}

func (c *Indexer) handleEventChallenge(ctx context.Context, event types.Event) {
	ev := event.(*types.EventChallenge)
	var inst Instance
	if err := c.db.First(&inst, ev.Instance).Error; err != nil {
		c.logger.Error("get instance fail", "err", err)
		return
	}
	inst.Stage = uint64(types.StageOpenChallenge)
	inst.ChallengerAddress = ev.Challenger.Hex()
	inst.ChallengePass = ev.Pass
	inst.ChallengeFail = ev.Fail
	if err := c.db.Save(&inst).Error; err != nil {
		c.logger.Error("save instance fail", "err", err)
	}
	c.saveTransition(ev.Instance, uint64(types.StageDesignatedReporting), inst.Stage, "submitChallenge", ev.Challenger.Hex(), ev.At)
}

func (c *Indexer) handleEventFinalize(ctx context.Context, event types.Event) {
	ev := event.(*types.EventFinalize)
	var inst Instance
	if err := c.db.First(&inst, ev.Instance).Error; err != nil {
		c.logger.Error("get instance fail", "err", err)
		return
	}
	from := inst.Stage
	inst.Stage = uint64(types.StageFinalized)
	inst.FinalPass = ev.Pass
	inst.FinalFail = ev.Fail
	inst.Prevailed = uint64(ev.Prevailed)
	inst.FinalizeTimestamp = ev.At
	if err := c.db.Save(&inst).Error; err != nil {
		c.logger.Error("save instance fail", "err", err)
	}
	c.saveTransition(ev.Instance, from, inst.Stage, "finalize", ev.Caller.Hex(), ev.At)
}

func (c *Indexer) handleEventEscalate(ctx context.Context, event types.Event) {
	ev := event.(*types.EventEscalate)
	var inst Instance
	if err := c.db.First(&inst, ev.Instance).Error; err != nil {
		c.logger.Error("get instance fail", "err", err)
		return
	}
	inst.Stage = uint64(types.StageDispute)
	inst.DisputeHandle = ev.DisputeHandle
	inst.SettlementDeadline = ev.SettlementDeadline
	if err := c.db.Save(&inst).Error; err != nil {
		c.logger.Error("save instance fail", "err", err)
	}
	c.saveTransition(ev.Instance, uint64(types.StageOpenChallenge), inst.Stage, "escalate", ev.Caller.Hex(), ev.At)
}

func (c *Indexer) handleEventVerdict(ctx context.Context, event types.Event) {
	ev := event.(*types.EventVerdict)
	var inst Instance
	if err := c.db.First(&inst, ev.Instance).Error; err != nil {
		c.logger.Error("get instance fail", "err", err)
		return
	}
	inst.Stage = uint64(types.StageFinalized)
	inst.FinalPass = ev.Pass
	inst.FinalFail = ev.Fail
	inst.Prevailed = uint64(ev.Prevailed)
	inst.FinalizeTimestamp = ev.At
	if err := c.db.Save(&inst).Error; err != nil {
		c.logger.Error("save instance fail", "err", err)
	}
	c.saveTransition(ev.Instance, uint64(types.StageDispute), inst.Stage, "resolveDispute", "", ev.At)
}

func (c *Indexer) handleEventArchive(ctx context.Context, event types.Event) {
	ev := event.(*types.EventArchive)
	var inst Instance
	if err := c.db.First(&inst, ev.Instance).Error; err != nil {
		c.logger.Error("get instance fail", "err", err)
		return
	}
	inst.Archived = true
	if err := c.db.Save(&inst).Error; err != nil {
		c.logger.Error("save instance fail", "err", err)
	}
	c.saveTransition(ev.Instance, inst.Stage, inst.Stage, "archive", ev.Caller.Hex(), ev.At)
}

func (c *Indexer) handleEventBond(ctx context.Context, event types.Event) {
	ev := event.(*types.EventBond)
	row := BondRow{
		Id:       ev.BondId,
		Instance: ev.Instance,
		Owner:    ev.Owner.Hex(),
		Amount:   ev.Amount,
		Status:   ev.Status,
		PaidTo:   ev.PaidTo.Hex(),
		At:       ev.At,
	}
	if err := c.db.Save(&row).Error; err != nil {
		c.logger.Error("save bond fail", "err", err)
	}
}

func (c *Indexer) saveTransition(instance, from, to uint64, op, caller string, at int64) {
	t := Transition{
		Instance:  instance,
		FromStage: from,
		ToStage:   to,
		Op:        op,
		Caller:    caller,
		At:        at,
	}
	if err := c.db.Save(&t).Error; err != nil {
		c.logger.Error("save transition fail", "err", err)
	}
}

func (c *Indexer) getInstances(stage uint64, page int, pageSize int) ([]Instance, uint64, error) {
	var insts []Instance
	q := c.db.Order("id desc").Offset(page * pageSize).Limit(pageSize)
	cnt := c.db.Model(&Instance{})
	if stage != 0 {
		q = q.Where("stage = ?", stage)
		cnt = cnt.Where("stage = ?", stage)
	}
	if err := q.Find(&insts).Error; err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := cnt.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	return insts, total, nil
}

func (c *Indexer) getInstanceById(id uint64) (Instance, error) {
	var inst Instance
	err := c.db.Where("id = ?", id).First(&inst).Error
	if err != nil {
		return Instance{}, err
	}
	return inst, nil
}

func (c *Indexer) getTransitionsByInstance(instance uint64, page int, pageSize int) ([]Transition, uint64, error) {
	var ts []Transition
	err := c.db.Where("instance = ?", instance).Order("id asc").Offset(page * pageSize).Limit(pageSize).Find(&ts).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = c.db.Model(&Transition{}).Where("instance = ?", instance).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return ts, total, nil
}

func (c *Indexer) getBondsByInstance(instance uint64) ([]BondRow, error) {
	var bonds []BondRow
	err := c.db.Where("instance = ?", instance).Order("at asc").Find(&bonds).Error
	if err != nil {
		return nil, err
	}
	return bonds, nil
}
