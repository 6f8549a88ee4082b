package trafficstate

// Service is a tagged value identifying the application-layer protocol
// inferred from a (port, transport) pair. The zero value is Unknown.
type Service struct {
	name string
	kind serviceKind
}

type serviceKind int

const (
	serviceUnknown serviceKind = iota
	serviceName
	serviceNotApplicable
)

// Unknown is the service value for ports the table has no entry for.
var Unknown = Service{kind: serviceUnknown}

// NotApplicable is the service value for protocols without a notion of
// "service", such as ICMP and ARP.
var NotApplicable = Service{kind: serviceNotApplicable}

// NamedService returns a Service identifying a well-known application
// protocol by name.
func NamedService(name string) Service {
	return Service{name: name, kind: serviceName}
}

// String renders the service the way the traffic views display it: the
// name if known, "?" if unknown, "-" if not applicable.
func (s Service) String() string {
	switch s.kind {
	case serviceName:
		return s.name
	case serviceNotApplicable:
		return "-"
	default:
		return "?"
	}
}

// IsKnown reports whether this is a Name(...) service.
func (s Service) IsKnown() bool {
	return s.kind == serviceName
}
