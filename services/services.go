// Package services maps well-known TCP ports to conventional service names
// for labelling report lines. No traffic is exchanged with the target.
package services

// Small table of IANA-registered or de facto ports.
var wellKnown = map[uint16]string{
	20:    "ftp-data",
	21:    "ftp",
	22:    "ssh",
	23:    "telnet",
	25:    "smtp",
	53:    "domain",
	80:    "http",
	110:   "pop3",
	111:   "rpcbind",
	135:   "msrpc",
	139:   "netbios-ssn",
	143:   "imap",
	389:   "ldap",
	443:   "https",
	445:   "microsoft-ds",
	465:   "smtps",
	587:   "submission",
	631:   "ipp",
	993:   "imaps",
	995:   "pop3s",
	1433:  "ms-sql-s",
	1521:  "oracle",
	2049:  "nfs",
	2375:  "docker",
	3306:  "mysql",
	3389:  "ms-wbt-server",
	5432:  "postgresql",
	5672:  "amqp",
	5900:  "vnc",
	6379:  "redis",
	6443:  "kubernetes",
	8080:  "http-proxy",
	8443:  "https-alt",
	9092:  "kafka",
	9200:  "elasticsearch",
	11211: "memcache",
	27017: "mongodb",
}

// Lookup returns the conventional service name for p and whether one is known.
func Lookup(p uint16) (string, bool) {
	name, ok := wellKnown[p]
	return name, ok
}

// Name returns the service name for p, or "unknown".
func Name(p uint16) string {
	if name, ok := Lookup(p); ok {
		return name
	}
	return "unknown"
}
