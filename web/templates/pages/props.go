package pages

import (
	"time"

	"github.com/a-h/templ"

	"enstore_storefront/internal/fee"
	"enstore_storefront/internal/models"
	"enstore_storefront/internal/status"
	"enstore_storefront/web/templates/shared"
)

// FieldView is one dynamic input field ready for the form renderer.
type FieldView struct {
	Name        string
	Label       string
	Kind        models.FieldKind
	Required    bool
	Placeholder string
	Options     []models.FieldOption
	Value       string
}

// InputType is the HTML input type for non-select kinds.
func (f FieldView) InputType() string {
	switch f.Kind {
	case models.FieldNumber:
		return "number"
	case models.FieldEmail:
		return "email"
	default:
		return "text"
	}
}

// FormName is the form key the field is posted under.
func (f FieldView) FormName() string {
	return FieldFormName(f.Name)
}

// FieldFormName prefixes dynamic field names so they cannot clash with the
// fixed checkout inputs.
func FieldFormName(name string) string {
	return "field_" + name
}

// FieldViews pairs each input field with its submitted value.
func FieldViews(fields []models.InputField, values map[string]string) []FieldView {
	views := make([]FieldView, 0, len(fields))
	for _, f := range fields {
		views = append(views, FieldView{
			Name:        f.Name,
			Label:       f.DisplayLabel(),
			Kind:        f.Kind(),
			Required:    f.Required,
			Placeholder: f.Placeholder,
			Options:     f.Options,
			Value:       values[f.Name],
		})
	}
	return views
}

type ServicesListProps struct {
	shared.Layout
	Categories []models.Category
	Products   []models.Product
	Category   string
	Search     string
	HasMore    bool
	NextPage   int
	Error      string
}

func ServicesList(props ServicesListProps) templ.Component {
	return render("services_list.html", props)
}

type ServiceDetailProps struct {
	shared.Layout
	Product         models.Product
	ItemGroups      []models.ItemGroup
	ChannelGroups   []models.ChannelGroup
	Fields          []FieldView
	SelectedItem    uint
	SelectedChannel string
	Email           string
	Quote           fee.Quote
	Error           string
	FieldErrors     []string
}

func ServiceDetail(props ServiceDetailProps) templ.Component {
	return render("service_detail.html", props)
}

type PostpaidDetailProps struct {
	shared.Layout
	Product         models.Product
	Items           []models.ProductItem
	ChannelGroups   []models.ChannelGroup
	CustomerLabel   string
	CustomerNo      string
	Inquiry         *models.PostpaidInquiryData
	SelectedItem    uint
	SelectedChannel string
	Email           string
	Quote           fee.Quote
	Error           string
	FieldErrors     []string
	Notice          string
	// PayKey is posted back with the pay form so a repeated submit is
	// recognised by the API.
	PayKey string
	// Paid hides the pay form once the bill is settled.
	Paid bool
}

func PostpaidDetail(props PostpaidDetailProps) templ.Component {
	return render("postpaid_detail.html", props)
}

type TransactionStatusProps struct {
	shared.Layout
	Transaction models.Transaction
	State       status.State
	Countdown   string
	ExpiresAt   *time.Time
	Expired     bool
	Cancellable bool
	PollSeconds int
}

// Pending reports whether the status page should keep listening for updates.
func (p TransactionStatusProps) Pending() bool {
	return !p.State.Terminal()
}

func TransactionStatus(props TransactionStatusProps) templ.Component {
	return render("transaction_status.html", props)
}

type AccountHistoryProps struct {
	shared.Layout
	Customer     *models.Customer
	Transactions []models.CustomerTransaction
	Pagination   models.Pagination
}

func AccountHistory(props AccountHistoryProps) templ.Component {
	return render("account_history.html", props)
}

type OpsTransactionsProps struct {
	shared.Layout
	Rows     []models.WatchedTransaction
	Total    int64
	Page     int
	HasMore  bool
	Status   string
	Search   string
	Statuses []models.TransactionStatus
}

func OpsTransactions(props OpsTransactionsProps) templ.Component {
	return render("ops_transactions.html", props)
}

type OpsTransactionDetailProps struct {
	shared.Layout
	Row models.WatchedTransaction
}

func OpsTransactionDetail(props OpsTransactionDetailProps) templ.Component {
	return render("ops_transaction_detail.html", props)
}

type LoginProps struct {
	FirebaseAPIKey     string
	FirebaseAuthDomain string
	FirebaseProjectID  string
	Error              string
}

func Login(props LoginProps) templ.Component {
	return render("login.html", props)
}

type ErrorPageProps struct {
	shared.Layout
	ErrorTitle   string
	ErrorMessage string
	FieldErrors  []string
	BackLink     string
	BackText     string
}

func ErrorPage(props ErrorPageProps) templ.Component {
	return render("error.html", props)
}
