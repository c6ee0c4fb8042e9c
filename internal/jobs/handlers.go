package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/piwi3910/barcut/internal/engine"
	"github.com/piwi3910/barcut/internal/export"
	"github.com/piwi3910/barcut/internal/model"
)

// OrderDocType is the document type reports of full optimizations are attached to.
const OrderDocType = "Sales Order"

const (
	pdfContentType  = "application/pdf"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// DocumentStore is the persistence the optimization handlers need.
type DocumentStore interface {
	GetOrder(ctx context.Context, name string) (model.Order, error)
	SaveOrderConfig(ctx context.Context, name string, cfg model.OptimizerConfig) error
	ReplaceOrderItems(ctx context.Context, name string, items []model.OrderItem) error
	AddAttachment(ctx context.Context, a *model.Attachment) error
	AddAlert(ctx context.Context, user, message string) (model.Alert, error)
}

// Catalog resolves item codes against the item master.
type Catalog interface {
	model.ItemLookup
	HasItem(itemCode string) bool
}

// Handlers implements the optimization job kinds.
type Handlers struct {
	Store     DocumentStore
	Catalog   Catalog
	Optimizer *engine.Optimizer
	Config    model.AppConfig
	Log       *zap.SugaredLogger

	now func() time.Time
}

// FullResult is the output of a full_optimization job.
type FullResult struct {
	OrderName   string            `json:"sales_order_name"`
	Attachments []string          `json:"attachments"`
	StockUsed   map[string]int    `json:"stock_used"`
	TotalCost   float64           `json:"total_cost"`
	Skipped     []string          `json:"skipped_items,omitempty"`
	Items       []model.OrderItem `json:"items,omitempty"`
}

// SingleResult is the output of a single_optimization job.
type SingleResult struct {
	FileName     string         `json:"file_name"`
	AttachmentID string         `json:"attachment_id"`
	Solution     model.Solution `json:"solution"`
}

// Register adds both handlers to q.
func (h *Handlers) Register(q *Queue) {
	q.Register(model.JobFullOptimization, h.FullOptimization)
	q.Register(model.JobSingleOptimization, h.SingleOptimization)
}

func (h *Handlers) logger() *zap.SugaredLogger {
	if h.Log == nil {
		return zap.NewNop().Sugar()
	}
	return h.Log
}

func (h *Handlers) clock() time.Time {
	if h.now != nil {
		return h.now()
	}
	return time.Now()
}

// FullOptimization optimizes every profile of a sales order, stores the
// result in the order and attaches the reports to it.
func (h *Handlers) FullOptimization(ctx context.Context, job model.Job) (any, error) {
	var payload model.FullOptimizationPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}
	log := h.logger().With("job_id", job.ID, "sales_order", payload.OrderName)

	res, err := h.fullOptimization(ctx, log, payload)
	if err != nil {
		h.notify(ctx, log, job.User, fmt.Sprintf("Optimization failed for Sales Order %s. See Error Log for details.", payload.OrderName))
		return nil, err
	}
	h.notify(ctx, log, job.User, fmt.Sprintf("Optimization complete. Sales Order %s has been updated with the cutting plan.", payload.OrderName))
	return res, nil
}

func (h *Handlers) fullOptimization(ctx context.Context, log *zap.SugaredLogger, payload model.FullOptimizationPayload) (FullResult, error) {
	order, err := h.Store.GetOrder(ctx, payload.OrderName)
	if err != nil {
		return FullResult{}, err
	}

	cfg := order.Config()
	if payload.Config != nil {
		cfg = *payload.Config
	}
	res := FullResult{OrderName: order.Name}
	for _, s := range cfg.SyncProfiles(order.Items, h.Catalog) {
		log.Warnw("skipping item without catalog entry", "item_code", s.ItemCode, "error", s.Err)
		res.Skipped = append(res.Skipped, s.ItemCode)
	}

	if err := h.Optimizer.OptimizeConfig(ctx, &cfg); err != nil {
		return FullResult{}, fmt.Errorf("optimization failed: %w", err)
	}
	if Interrupted(ctx) {
		return FullResult{}, ctx.Err()
	}
	if err := h.Store.SaveOrderConfig(ctx, order.Name, cfg); err != nil {
		return FullResult{}, fmt.Errorf("failed to save config: %w", err)
	}

	res.StockUsed = engine.TotalStockUsed(cfg)
	for _, sol := range cfg.Results {
		if sol != nil {
			res.TotalCost += sol.TotalStockCost
		}
	}

	reports := export.ProfileReports(cfg)
	res.Attachments = h.attachReports(ctx, log, OrderDocType, order.Name, order.Name, reports)

	if h.Config.UpdateOrderItems {
		items, unknown := model.ItemsFromStockUsage(res.StockUsed, h.Catalog.HasItem)
		for _, code := range unknown {
			log.Warnw("item code not found, not added to order", "item_code", code)
		}
		if err := h.Store.ReplaceOrderItems(ctx, order.Name, items); err != nil {
			log.Errorw("failed to update order items", "error", err)
		} else {
			res.Items = items
		}
	}
	return res, nil
}

// SingleOptimization solves one request and attaches its report to a document.
func (h *Handlers) SingleOptimization(ctx context.Context, job model.Job) (any, error) {
	var payload model.SingleOptimizationPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}
	log := h.logger().With("job_id", job.ID, "doctype", payload.DocType, "docname", payload.DocName)

	res, err := h.singleOptimization(ctx, log, payload)
	if err != nil {
		h.notify(ctx, log, job.User, fmt.Sprintf("Optimization failed for %s %s. See Error Log for details.", payload.DocType, payload.DocName))
		return nil, err
	}
	h.notify(ctx, log, job.User, fmt.Sprintf("Optimization complete. %s %s has been updated with the cutting plan.", payload.DocType, payload.DocName))
	return res, nil
}

func (h *Handlers) singleOptimization(ctx context.Context, log *zap.SugaredLogger, payload model.SingleOptimizationPayload) (SingleResult, error) {
	var req model.Request
	if err := json.Unmarshal([]byte(payload.RequestDataJSON), &req); err != nil {
		return SingleResult{}, fmt.Errorf("invalid request data: %w", err)
	}
	h.Config.ApplyToSettings(&req.Settings)

	sol, err := h.Optimizer.Optimize(ctx, req)
	if err != nil {
		return SingleResult{}, fmt.Errorf("optimization failed: %w", err)
	}
	if Interrupted(ctx) {
		return SingleResult{}, ctx.Err()
	}
	res := SingleResult{Solution: sol}

	project := req.ProjectDescription
	if project == "" {
		project = payload.DocName
	}
	content, err := export.RenderPDF(project, []export.Report{{Request: req, Solution: sol}})
	if err != nil {
		return SingleResult{}, fmt.Errorf("failed to render report: %w", err)
	}
	att := &model.Attachment{
		DocType:     payload.DocType,
		DocName:     payload.DocName,
		FileName:    export.ReportFileName(project, h.clock()),
		ContentType: pdfContentType,
		Private:     true,
		Content:     content,
	}
	if err := h.Store.AddAttachment(ctx, att); err != nil {
		return SingleResult{}, fmt.Errorf("failed to attach report: %w", err)
	}
	res.FileName = att.FileName
	res.AttachmentID = att.ID
	log.Infow("report attached", "file_name", att.FileName, "size", att.Size)

	if h.Config.UpdateOrderItems && payload.DocType == OrderDocType {
		items, unknown := model.ItemsFromStockUsage(sol.StockUsed, h.Catalog.HasItem)
		for _, code := range unknown {
			log.Warnw("item code not found, not added to order", "item_code", code)
		}
		if err := h.Store.ReplaceOrderItems(ctx, payload.DocName, items); err != nil {
			log.Errorw("failed to update order items", "error", err)
		}
	}
	return res, nil
}

// attachReports renders the configured report formats and attaches them.
// Failures are logged and do not fail the job.
func (h *Handlers) attachReports(ctx context.Context, log *zap.SugaredLogger, doctype, docname, project string, reports []export.Report) []string {
	if len(reports) == 0 {
		log.Infow("no profile produced a cutting plan, no report attached")
		return nil
	}
	pdfName := export.ReportFileName(project, h.clock())
	formats := h.Config.ExportFormats
	if len(formats) == 0 {
		formats = []string{"pdf"}
	}

	var names []string
	attach := func(name, contentType string, content []byte) {
		att := &model.Attachment{
			DocType:     doctype,
			DocName:     docname,
			FileName:    name,
			ContentType: contentType,
			Private:     true,
			Content:     content,
		}
		if err := h.Store.AddAttachment(ctx, att); err != nil {
			log.Errorw("failed to attach report", "file_name", name, "error", err)
			return
		}
		log.Infow("report attached", "file_name", name, "size", att.Size)
		names = append(names, name)
	}

	if slices.Contains(formats, "pdf") {
		content, err := export.RenderPDF(project, reports)
		if err != nil {
			log.Errorw("failed to render pdf report", "error", err)
		} else {
			attach(pdfName, pdfContentType, content)
		}
	}
	if slices.Contains(formats, "xlsx") {
		content, err := export.RenderXLSX(project, reports)
		if err != nil {
			log.Errorw("failed to render cut list", "error", err)
		} else {
			attach(strings.TrimSuffix(pdfName, ".pdf")+".xlsx", xlsxContentType, content)
		}
	}
	return names
}

func (h *Handlers) notify(ctx context.Context, log *zap.SugaredLogger, user, message string) {
	if user == "" || Interrupted(ctx) {
		return
	}
	if _, err := h.Store.AddAlert(context.WithoutCancel(ctx), user, message); err != nil {
		log.Errorw("failed to send alert", "user", user, "error", err)
	}
}
