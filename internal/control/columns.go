package control

// Column names of the "show stat" CSV header. They are used verbatim as
// record keys; the first column keeps the "# " comment marker HAProxy emits.
const (
	ColProxyName     = "# pxname"
	ColServiceName   = "svname"
	ColQueueCur      = "qcur"
	ColQueueMax      = "qmax"
	ColSessionsCur   = "scur"
	ColSessionsMax   = "smax"
	ColSessionsLimit = "slim"
	ColSessionsTotal = "stot"
	ColBytesIn       = "bin"
	ColBytesOut      = "bout"
	ColDeniedReq     = "dreq"
	ColDeniedResp    = "dresp"
	ColErrReq        = "ereq"
	ColErrConn       = "econ"
	ColErrResp       = "eresp"
	ColWarnRetries   = "wretr"
	ColWarnRedisp    = "wredis"
	ColStatus        = "status"
	ColWeight        = "weight"
	ColActive        = "act"
	ColBackup        = "bck"
	ColCheckFail     = "chkfail"
	ColCheckDown     = "chkdown"
	ColLastChange    = "lastchg"
	ColDowntime      = "downtime"
	ColQueueLimit    = "qlimit"
	ColPID           = "pid"
	ColIID           = "iid"
	ColSID           = "sid"
	ColThrottle      = "throttle"
	ColLBTotal       = "lbtot"
	ColTracked       = "tracked"
	ColType          = "type"
	ColRate          = "rate"
	ColRateLimit     = "rate_lim"
	ColRateMax       = "rate_max"
	ColCheckStatus   = "check_status"
	ColCheckCode     = "check_code"
	ColCheckDuration = "check_duration"
	ColHrsp1xx       = "hrsp_1xx"
	ColHrsp2xx       = "hrsp_2xx"
	ColHrsp3xx       = "hrsp_3xx"
	ColHrsp4xx       = "hrsp_4xx"
	ColHrsp5xx       = "hrsp_5xx"
	ColHrspOther     = "hrsp_other"
	ColHanaFail      = "hanafail"
	ColReqRate       = "req_rate"
	ColReqRateMax    = "req_rate_max"
	ColReqTotal      = "req_tot"
	ColClientAborts  = "cli_abrt"
	ColServerAborts  = "srv_abrt"
)

// KnownColumns lists the columns this package documents, in HAProxy's
// header order. Records are never restricted to this set.
var KnownColumns = []string{
	ColProxyName, ColServiceName, ColQueueCur, ColQueueMax, ColSessionsCur,
	ColSessionsMax, ColSessionsLimit, ColSessionsTotal, ColBytesIn, ColBytesOut,
	ColDeniedReq, ColDeniedResp, ColErrReq, ColErrConn, ColErrResp,
	ColWarnRetries, ColWarnRedisp, ColStatus, ColWeight, ColActive, ColBackup,
	ColCheckFail, ColCheckDown, ColLastChange, ColDowntime, ColQueueLimit,
	ColPID, ColIID, ColSID, ColThrottle, ColLBTotal, ColTracked, ColType,
	ColRate, ColRateLimit, ColRateMax, ColCheckStatus, ColCheckCode,
	ColCheckDuration, ColHrsp1xx, ColHrsp2xx, ColHrsp3xx, ColHrsp4xx,
	ColHrsp5xx, ColHrspOther, ColHanaFail, ColReqRate, ColReqRateMax,
	ColReqTotal, ColClientAborts, ColServerAborts,
}

var knownColumnSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(KnownColumns))
	for _, c := range KnownColumns {
		set[c] = struct{}{}
	}
	return set
}()

// IsKnownColumn reports whether name is one of KnownColumns
func IsKnownColumn(name string) bool {
	_, ok := knownColumnSet[name]
	return ok
}

// Type column values
const (
	TypeFrontend = "0"
	TypeBackend  = "1"
	TypeServer   = "2"
	TypeListener = "3"
)
