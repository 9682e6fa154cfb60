package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bcgov/bctw-api/internal/interfaces"
	"github.com/bcgov/bctw-api/internal/model"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// StagingFactory 为每次运行创建新的暂存表仓储（列结构缓存只在一次运行内有效）
type StagingFactory func() interfaces.StagingStore

// Pipeline 一次完整同步：清表 → 各厂商依次拉取并归并。同一时间只允许一次运行。
type Pipeline struct {
	adapters   []interfaces.VendorAdapter
	fetch      *FetchService
	merge      *MergeService
	newStaging StagingFactory
	logger     *logrus.Logger
	nowFunc    func() time.Time

	mu sync.Mutex
}

// runState 一次运行的全部可变状态，开始时创建，结束后丢弃
type runState struct {
	id        string
	fetchedAt time.Time
	staging   interfaces.StagingStore
	report    *model.RunReport
	log       *logrus.Entry
}

func NewPipeline(adapters []interfaces.VendorAdapter, fetch *FetchService, merge *MergeService, newStaging StagingFactory, logger *logrus.Logger) *Pipeline {
	return &Pipeline{
		adapters:   adapters,
		fetch:      fetch,
		merge:      merge,
		newStaging: newStaging,
		logger:     logger,
		nowFunc:    time.Now,
	}
}

// Run 执行一次同步。已有运行在进行时立即返回 model.ErrRunInProgress。
// 只有清表失败或 ctx 取消会返回错误；厂商级失败记录在报告中。
func (p *Pipeline) Run(ctx context.Context) (*model.RunReport, error) {
	if !p.mu.TryLock() {
		return nil, model.ErrRunInProgress
	}
	defer p.mu.Unlock()

	st := p.newRunState()
	st.log.Info("pipeline run started")

	err := p.run(ctx, st)
	st.report.FinishedAt = p.nowFunc()
	p.logReport(st, err)
	if err != nil {
		return st.report, err
	}
	return st.report, nil
}

func (p *Pipeline) newRunState() *runState {
	now := p.nowFunc()
	id := uuid.NewString()
	return &runState{
		id:        id,
		fetchedAt: now.UTC(),
		staging:   p.newStaging(),
		report: &model.RunReport{
			RunID:     id,
			StartedAt: now,
			Stage:     model.StageStart,
		},
		log: p.logger.WithField("run_id", id),
	}
}

func (p *Pipeline) run(ctx context.Context, st *runState) error {
	st.report.Stage = model.StageTruncate
	if err := st.staging.Truncate(ctx, p.truncateTables()); err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}

	for _, adapter := range p.adapters {
		if err := ctx.Err(); err != nil {
			return err
		}
		vr := &model.VendorReport{Vendor: adapter.GetType(), Stage: model.StageStart}
		st.report.Vendors = append(st.report.Vendors, vr)
		st.report.Stage = model.StageFetch

		if err := p.runVendor(ctx, st, adapter, vr); err != nil {
			return err
		}
	}
	st.report.Stage = model.StageDone
	return nil
}

// runVendor 执行一个厂商的拉取与归并。厂商级失败只记入报告，仅 ctx 取消向上返回。
func (p *Pipeline) runVendor(ctx context.Context, st *runState, adapter interfaces.VendorAdapter, vr *model.VendorReport) error {
	log := st.log.WithField("vendor", vr.Vendor)

	if err := p.fetch.FetchVendor(ctx, st.id, st.fetchedAt, adapter, st.staging, vr); err != nil {
		vr.Error = err.Error()
		if isCancelled(err) {
			return err
		}
		log.WithError(err).WithField("stage", vr.Stage).Error("vendor fetch aborted")
		return nil
	}

	st.report.Stage = model.StageMerge
	vr.Stage = model.StageMerge
	n, err := p.merge.Merge(ctx, st.staging, adapter.MergeMapping())
	if err != nil {
		vr.Error = err.Error()
		if isCancelled(err) {
			return err
		}
		log.WithError(err).Error("vendor merge failed")
		return nil
	}
	vr.MergedRows = n
	vr.Stage = model.StageDone
	return nil
}

// truncateTables 所有厂商的暂存表加上宽表
func (p *Pipeline) truncateTables() []string {
	var tables []string
	for _, a := range p.adapters {
		for _, c := range a.Capabilities() {
			tables = append(tables, c.Table)
		}
	}
	return append(tables, model.CanonicalTable)
}

func (p *Pipeline) logReport(st *runState, err error) {
	for _, v := range st.report.Vendors {
		st.log.WithFields(logrus.Fields{
			"vendor":             v.Vendor,
			"stage":              v.Stage,
			"devices":            v.Devices,
			"devices_with_data":  v.DevicesWithData,
			"devices_all_failed": v.DevicesAllFailed,
			"payloads":           v.PayloadsPersisted,
			"not_found":          v.NotFound,
			"empty":              v.Empty,
			"transport_failures": v.TransportFailures,
			"persist_failures":   v.PersistFailures,
			"merged_rows":        v.MergedRows,
		}).Info("vendor summary")
	}

	entry := st.log.WithFields(logrus.Fields{
		"stage":    st.report.Stage,
		"duration": st.report.FinishedAt.Sub(st.report.StartedAt).String(),
	})
	switch {
	case err != nil:
		entry.WithError(err).Error("pipeline run failed")
	case st.report.Degraded():
		entry.Warn("pipeline run finished with failures")
	default:
		entry.Info("pipeline run finished")
	}
}

func isCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
