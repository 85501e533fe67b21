package worker

import (
	sdkactivity "go.temporal.io/sdk/activity"
	sdkworker "go.temporal.io/sdk/worker"
	sdkworkflow "go.temporal.io/sdk/workflow"

	"github.com/danielyudicarvalho/case-scoring/internal/aggregation"
	"github.com/danielyudicarvalho/case-scoring/internal/analysis"
	"github.com/danielyudicarvalho/case-scoring/internal/configuration"
	"github.com/danielyudicarvalho/case-scoring/internal/extract"
	"github.com/danielyudicarvalho/case-scoring/internal/ingest"
	"github.com/danielyudicarvalho/case-scoring/internal/notify"
	"github.com/danielyudicarvalho/case-scoring/internal/workflow"
	pkgactivity "github.com/danielyudicarvalho/case-scoring/pkg/activity"
	"github.com/danielyudicarvalho/case-scoring/pkg/events"
)

// RegisterAll registers the scoring workflow and every pipeline activity
// with the worker. Not thread-safe; call once during startup before the
// worker runs.
func RegisterAll(w sdkworker.Worker, cfg *configuration.Config, collabs *Collaborators) {
	base := pkgactivity.NewBaseActivities(events.NewNoOpEventSink())

	ingestActivities := ingest.NewActivities(base, collabs.Blobs, extract.NewDocumentExtractor())
	analysisActivities := analysis.NewActivities(base, collabs.Completion,
		analysis.NewPromptCache(collabs.Blobs, cfg.Storage.PromptsBucket), cfg.MaxTokens)
	aggregationActivities := aggregation.NewActivities(base, collabs.KV,
		cfg.Storage.WeightsTable, cfg.Storage.HistoryTable)
	notifyActivities := notify.NewActivities(base, collabs.Notifier,
		cfg.Notification.FallbackRecipient)

	w.RegisterWorkflowWithOptions(workflow.CaseScoringWorkflow,
		sdkworkflow.RegisterOptions{Name: workflow.CaseScoringWorkflowName})

	w.RegisterActivityWithOptions(ingestActivities.ExtractDocumentText,
		sdkactivity.RegisterOptions{Name: ingest.ExtractDocumentTextActivity})
	w.RegisterActivityWithOptions(analysisActivities.SummarizeCase,
		sdkactivity.RegisterOptions{Name: analysis.SummarizeCaseActivity})
	w.RegisterActivityWithOptions(analysisActivities.ClassifyCaseType,
		sdkactivity.RegisterOptions{Name: analysis.ClassifyCaseTypeActivity})
	w.RegisterActivityWithOptions(analysisActivities.AnalyzeFactor,
		sdkactivity.RegisterOptions{Name: analysis.AnalyzeFactorActivity})
	w.RegisterActivityWithOptions(aggregationActivities.FetchWeights,
		sdkactivity.RegisterOptions{Name: aggregation.FetchWeightsActivity})
	w.RegisterActivityWithOptions(aggregationActivities.PersistScore,
		sdkactivity.RegisterOptions{Name: aggregation.PersistScoreActivity})
	w.RegisterActivityWithOptions(notifyActivities.NotifyRecipient,
		sdkactivity.RegisterOptions{Name: notify.NotifyRecipientActivity})
}
