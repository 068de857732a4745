package tasks

const (
	TaskLogInfo                = "log_info"
	TaskSweepPending           = "sweep_pending_transactions"
	TaskRefreshCatalog         = "refresh_catalog_cache"
	TaskSendStatusNotification = "send_status_notification"
)

// Deps are the services the worker tasks run against.
type Deps struct {
	Transactions StatusFetcher
	Locks        Locker
	Channels     CacheRefresher
	Categories   CacheRefresher
	Notifier     ReceiptSender
	// Watch is nil when no database is configured; the tasks that need the
	// local mirror are not registered then.
	Watch interface {
		SweepStore
		ReceiptStore
	}
}

// DefineTasks registers all available tasks
func DefineTasks(r *Registry, deps Deps) {
	// Register general tasks
	r.Register(LogInfoTask.TaskID(), LogInfoTask.HandleExecution)

	refresh := &RefreshCatalogTaskDef{Channels: deps.Channels, Categories: deps.Categories}
	r.Register(refresh.TaskID(), refresh.HandleExecution)

	if deps.Watch == nil || deps.Transactions == nil {
		return
	}

	sweep := &SweepPendingTaskDef{Transactions: deps.Transactions, Watch: deps.Watch, Locks: deps.Locks}
	r.Register(sweep.TaskID(), sweep.HandleExecution)

	if deps.Notifier != nil {
		notify := &SendStatusNotificationTaskDef{Transactions: deps.Transactions, Receipts: deps.Watch, Notifier: deps.Notifier}
		r.Register(notify.TaskID(), notify.HandleExecution)
	}
}
