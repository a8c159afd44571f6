package camunda

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"movie-dropoff/internal/common/config"
	apperrors "movie-dropoff/internal/common/errors"
	"movie-dropoff/internal/common/logger"
	"movie-dropoff/pkg/registry"
)

type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// Workers tracks the job workers opened against one Zeebe client so they
// can be closed together. With a registry, only registered task types are
// opened and job variables are checked against the activity's input schema
// before the handler sees them.
type Workers struct {
	client   zbc.Client
	log      logger.Logger
	registry *registry.ActivityRegistry
	open     map[string]worker.JobWorker
}

func NewWorkers(client zbc.Client, reg *registry.ActivityRegistry, log logger.Logger) *Workers {
	return &Workers{
		client:   client,
		log:      log.Named("camunda"),
		registry: reg,
		open:     make(map[string]worker.JobWorker),
	}
}

// Start opens a worker for taskType unless wcfg disables it or the task type
// is not registered. It reports whether a worker was opened.
func (w *Workers) Start(taskType string, wcfg config.WorkerConfig, handler JobHandler) bool {
	if !wcfg.Enabled {
		w.log.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return false
	}

	fields := map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	}
	if w.registry != nil {
		activity, ok := w.registry.Find(taskType)
		if !ok {
			w.log.Error("task type not in activity registry", map[string]interface{}{"taskType": taskType})
			return false
		}
		handler = Guard(activity, handler, w.log)
		fields["activity"] = activity.DisplayName
	}

	jw := w.client.NewJobWorker().
		JobType(taskType).
		Handler(handler.Handle).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Open()
	w.open[taskType] = jw

	w.log.Info("worker started", fields)
	return true
}

func (w *Workers) Count() int {
	return len(w.open)
}

// Close stops every worker and waits for in-flight jobs.
func (w *Workers) Close() {
	for taskType, jw := range w.open {
		w.log.Info("stopping worker", map[string]interface{}{"taskType": taskType})
		jw.Close()
		jw.AwaitClose()
	}
	w.open = make(map[string]worker.JobWorker)
}

type guarded struct {
	activity *registry.Activity
	next     JobHandler
	log      logger.Logger
	errs     *apperrors.ErrorHandler
}

// Guard rejects jobs whose variables do not match activity's input schema
// with INVALID_INPUT. Everything else goes to next.
func Guard(activity *registry.Activity, next JobHandler, log logger.Logger) JobHandler {
	return &guarded{activity: activity, next: next, log: log, errs: apperrors.NewErrorHandler(log)}
}

func (g *guarded) Handle(client worker.JobClient, job entities.Job) {
	vars, err := job.GetVariablesAsMap()
	if err == nil {
		err = g.activity.ValidateInput(vars)
	}
	if err != nil {
		g.log.Warn("job rejected by input schema", map[string]interface{}{
			"taskType": g.activity.TaskType,
			"jobKey":   job.Key,
			"error":    err.Error(),
		})
		g.errs.HandleJobError(context.Background(), client, job, apperrors.NewInvalidInputError(err.Error()))
		return
	}
	g.next.Handle(client, job)
}
