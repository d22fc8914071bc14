package config

type Credentials struct {
	User     string `hcl:"user"`
	Password string `hcl:"password"`
}

type Host struct {
	Hostname string `hcl:"hostname"`
	Port     string `hcl:"port"`
}

type HTTP struct {
	Method string `hcl:"method"`
	Scheme string `hcl:"scheme"`
	Host   `hcl:",squash"`
	Path   string `hcl:"path"`
	// URL takes precedence over scheme, host and path when set.
	URL     string            `hcl:"url"`
	Headers map[string]string `hcl:"headers"`
	Payload string            `hcl:"payload"`

	ExpectStatus string            `hcl:"expectStatus"`
	ExpectJSON   map[string]string `hcl:"expectJSON"`
	BodyContains string            `hcl:"bodyContains"`
}

type Command struct {
	Command          string   `hcl:"command"`
	Args             []string `hcl:"args"`
	Env              []string `hcl:"env"`
	WorkingDirectory string   `hcl:"workingDirectory"`
	ExpectExitCode   int      `hcl:"expectExitCode"`
}

type Postgres struct {
	Credentials `hcl:",squash"`
	Host        `hcl:",squash"`
	Database    string `hcl:"database"`
	SSLMode     string `hcl:"sslMode"`
	// DSN takes precedence over the discrete connection fields.
	DSN     string `hcl:"dsn"`
	Query   string `hcl:"query"`
	MinRows int    `hcl:"minRows"`
}

type MySQL struct {
	Credentials         `hcl:",squash"`
	Host                `hcl:",squash"`
	AllowNativePassword string `hcl:"allowNativePassword"`
	Database            string `hcl:"database"`
	Query               string `hcl:"query"`
	MinRows             int    `hcl:"minRows"`
}

type Neo4j struct {
	Credentials `hcl:",squash"`
	URI         string `hcl:"uri"`
	Database    string `hcl:"database"`
	Query       string `hcl:"query"`
	MinRows     int    `hcl:"minRows"`
}

type MongoDB struct {
	Credentials  `hcl:",squash"`
	Host         `hcl:",squash"`
	Database     string `hcl:"database"`
	URL          string `hcl:"url"`
	Collection   string `hcl:"collection"`
	MinDocuments int64  `hcl:"minDocuments"`
}

type Redis struct {
	Host     `hcl:",squash"`
	Password string `hcl:"password"`
	Database int    `hcl:"database"`
}

type Amqp struct {
	Credentials `hcl:",squash"`
	Host        `hcl:",squash"`
	VirtualHost string `hcl:"virtualHost"`
}

type SMTP struct {
	Host `hcl:",squash"`
}

type Probe struct {
	Name         string `hcl:",key"`
	Timeout      string `hcl:"timeout"`
	Retries      int    `hcl:"retries"`
	RetryBackoff string `hcl:"retryBackoff"`
	CanFail      bool   `hcl:"canFail"`

	HTTP       *HTTP     `hcl:"http"`
	Command    *Command  `hcl:"command"`
	Postgres   *Postgres `hcl:"postgres"`
	MySQL      *MySQL    `hcl:"mysql"`
	Neo4j      *Neo4j    `hcl:"neo4j"`
	MongoDB    *MongoDB  `hcl:"mongodb"`
	Redis      *Redis    `hcl:"redis"`
	Amqp       *Amqp     `hcl:"amqp"`
	SMTP       *SMTP     `hcl:"smtp"`
	TCP        *Host     `hcl:"tcp"`
	Filesystem string    `hcl:"filesystem"`
}

// Target holds the addresses and credentials of one deployment target.
type Target struct {
	Name    string            `hcl:",key"`
	EnvFile string            `hcl:"envFile"`
	Env     map[string]string `hcl:"env"`
	Vars    map[string]string `hcl:"vars"`
}

// ReportFile is an additional copy of the report written after each run.
// Path may be a template.
type ReportFile struct {
	Path   string `hcl:",key"`
	Format string `hcl:"format"`
	Mode   string `hcl:"mode"`
}

type Suite struct {
	Targets []Target     `hcl:"target"`
	Probes  []Probe      `hcl:"probe"`
	Reports []ReportFile `hcl:"report"`

	// Dir is the directory the suite was loaded from; relative env files
	// are resolved against it.
	Dir string `hcl:"-"`
}
