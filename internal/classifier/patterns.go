package classifier

// indicator maps message keywords to a CWE and a vulnerability-type label.
// The table is an ordered slice: matching walks it top to bottom, so the
// CWE accumulation order is deterministic across runs.
type indicator struct {
	keywords []string
	cweID    string
	vulnType string
}

var indicators = []indicator{
	{[]string{"sql injection", "sqli", "sql-injection"}, "CWE-89", "sql_injection"},
	{[]string{"cross-site scripting", "cross site scripting", "xss"}, "CWE-79", "xss"},
	{[]string{"command injection", "shell injection", "os command"}, "CWE-78", "command_injection"},
	{[]string{"path traversal", "directory traversal", "zip slip"}, "CWE-22", "path_traversal"},
	{[]string{"cross-site request forgery", "csrf"}, "CWE-352", "csrf"},
	{[]string{"server-side request forgery", "ssrf"}, "CWE-918", "ssrf"},
	{[]string{"xml external entity", "xxe"}, "CWE-611", "xxe"},
	{[]string{"deserializ"}, "CWE-502", "unsafe_deserialization"},
	{[]string{"buffer overflow", "out-of-bounds write", "out of bounds write"}, "CWE-787", "buffer_overflow"},
	{[]string{"out-of-bounds read", "out of bounds read"}, "CWE-125", "out_of_bounds_read"},
	{[]string{"integer overflow"}, "CWE-190", "integer_overflow"},
	{[]string{"use after free", "use-after-free"}, "CWE-416", "use_after_free"},
	{[]string{"null pointer dereference", "nil pointer dereference"}, "CWE-476", "null_dereference"},
	{[]string{"race condition", "toctou"}, "CWE-362", "race_condition"},
	{[]string{"hardcoded password", "hardcoded credential", "hardcoded secret", "hard-coded password", "hard-coded credential", "hard-coded secret"}, "CWE-798", "hardcoded_credentials"},
	{[]string{"open redirect"}, "CWE-601", "open_redirect"},
	{[]string{"format string"}, "CWE-134", "format_string"},
	{[]string{"prototype pollution"}, "CWE-1321", "prototype_pollution"},
	{[]string{"template injection"}, "CWE-1336", "template_injection"},
	{[]string{"log injection", "log forging"}, "CWE-117", "log_injection"},
	{[]string{"symlink attack", "symlink follow"}, "CWE-59", "symlink_following"},
	{[]string{"weak cipher", "weak crypto", "insecure cipher", "broken crypto"}, "CWE-327", "weak_cryptography"},
	{[]string{"insecure random", "weak random", "predictable random"}, "CWE-330", "insecure_randomness"},
	{[]string{"authentication bypass", "auth bypass", "missing authentication"}, "CWE-287", "authentication_bypass"},
	{[]string{"authorization bypass", "missing authorization", "privilege escalation"}, "CWE-862", "authorization_bypass"},
	{[]string{"session fixation"}, "CWE-384", "session_fixation"},
	{[]string{"denial of service", "resource exhaustion", "regex dos", "redos"}, "CWE-400", "denial_of_service"},
	{[]string{"information disclosure", "information leak", "sensitive data exposure"}, "CWE-200", "information_disclosure"},
	{[]string{"improper input validation", "missing input validation", "unvalidated input", "missing sanitiz", "improper sanitiz"}, "CWE-20", "improper_input_validation"},
}

// securityKeywords mark a message as security-related even when no indicator
// maps it to a concrete CWE. Those fixes go through the single-CWE inference
// fallback.
var securityKeywords = []string{
	"security",
	"vulnerab",
	"exploit",
	"cve-",
	"ghsa-",
	"injection",
	"sanitiz",
	"unsafe",
	"insecure",
}
