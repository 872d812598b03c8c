package models

// Namespace is one of the four environments every project receives.
type Namespace string

const (
	Production  Namespace = "production"
	Test        Namespace = "test"
	Development Namespace = "development"
	Tools       Namespace = "tools"
)

// Namespaces lists every namespace in display order.
var Namespaces = []Namespace{Production, Test, Development, Tools}

type ProjectStatus string

const (
	ProjectActive  ProjectStatus = "ACTIVE"
	ProjectDeleted ProjectStatus = "DELETED"
)

type RequestType string

const (
	RequestCreate      RequestType = "CREATE"
	RequestEdit        RequestType = "EDIT"
	RequestDelete      RequestType = "DELETE"
	RequestReprovision RequestType = "REPROVISION"
)

// Valid reports whether t is a known request type.
func (t RequestType) Valid() bool {
	switch t {
	case RequestCreate, RequestEdit, RequestDelete, RequestReprovision:
		return true
	}
	return false
}

type DecisionStatus string

const (
	DecisionPending  DecisionStatus = "PENDING"
	DecisionApproved DecisionStatus = "APPROVED"
	DecisionRejected DecisionStatus = "REJECTED"
)

// Terminal reports whether no further transition is defined from s.
func (s DecisionStatus) Terminal() bool {
	return s == DecisionApproved || s == DecisionRejected
}

var ministries = []string{
	"AEST", "AG", "AGRI", "ALC", "BCPC", "CITZ", "DBC", "EAO", "EDUC", "EMBC",
	"EMPR", "ENV", "FIN", "FLNR", "HLTH", "IRR", "JEDC", "LBR", "LDB", "MAH",
	"MCF", "MMHA", "PSA", "PSSG", "SDPR", "TCA", "TRAN",
}

var clusters = []string{"CLAB", "KLAB", "SILVER", "GOLD", "GOLDDR", "KLAB2", "EMERALD"}

// Ministries returns the ministry acronyms a project may belong to.
func Ministries() []string { return append([]string(nil), ministries...) }

// Clusters returns the clusters a project may be placed on.
func Clusters() []string { return append([]string(nil), clusters...) }

// IsMinistry reports whether s is a known ministry acronym.
func IsMinistry(s string) bool { return contains(ministries, s) }

// IsCluster reports whether s is a known cluster.
func IsCluster(s string) bool { return contains(clusters, s) }

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
