package spec

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	neterrors "github.com/kleypas/netplot/pkg/errors"
)

const orderedYAML = `
public:
  autonomous_systems:
    - name: transpac
      region: international
      devices:
        - name: cdn-tokyo
          addr: 203.0.113.10
private:
  gamma:
    subnet: 10.3.0.0/24
    gateway:
      name: gamma-router
  alpha:
    subnet: 10.1.0.0/24
    gateway:
      name: alpha-router
  beta:
    subnet: 10.2.0.0/24
    gateway:
      name: beta-router
`

const orderedJSON = `{
  "public": {"autonomous_systems": []},
  "private": {
    "gamma": {"subnet": "10.3.0.0/24", "gateway": {"name": "gamma-router"}},
    "alpha": {"subnet": "10.1.0.0/24", "gateway": {"name": "alpha-router"}},
    "beta":  {"subnet": "10.2.0.0/24", "gateway": {"name": "beta-router"}}
  }
}`

func TestParseYAMLPreservesNetworkOrder(t *testing.T) {
	d, err := ParseYAML([]byte(orderedYAML))
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}

	want := []string{"gamma", "alpha", "beta"}
	if got := d.Private.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("network order = %v, want %v", got, want)
	}

	if got := len(d.Public.AutonomousSystems); got != 1 {
		t.Fatalf("autonomous systems = %d, want 1", got)
	}
	if d.Public.AutonomousSystems[0].Region != RegionInternational {
		t.Errorf("region = %q, want %q", d.Public.AutonomousSystems[0].Region, RegionInternational)
	}
}

func TestParseJSONPreservesNetworkOrder(t *testing.T) {
	d, err := ParseJSON([]byte(orderedJSON))
	if err != nil {
		t.Fatalf("ParseJSON() error = %v", err)
	}

	want := []string{"gamma", "alpha", "beta"}
	if got := d.Private.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("network order = %v, want %v", got, want)
	}
}

func TestNetworkListRoundTrip(t *testing.T) {
	d, err := ParseYAML([]byte(orderedYAML))
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	back, err := ParseJSON(data)
	if err != nil {
		t.Fatalf("ParseJSON(marshaled) error = %v", err)
	}
	if !reflect.DeepEqual(back, d) {
		t.Errorf("round trip changed the declaration:\n got %+v\nwant %+v", back, d)
	}
	if got := back.Private.Names(); !reflect.DeepEqual(got, []string{"gamma", "alpha", "beta"}) {
		t.Errorf("round trip order = %v, want [gamma alpha beta]", got)
	}
}

func TestNetworkListMarshalNil(t *testing.T) {
	var l NetworkList
	data, err := json.Marshal(l)
	if err != nil {
		t.Fatalf("Marshal(nil) error = %v", err)
	}
	if string(data) != "null" {
		t.Errorf("Marshal(nil) = %s, want null", data)
	}
}

func TestParseSniffsFormat(t *testing.T) {
	d, err := Parse([]byte("  \n" + orderedJSON))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := d.Private.Names(); len(got) != 3 || got[0] != "gamma" {
		t.Errorf("sniffed JSON order = %v, want gamma first", got)
	}

	d, err = Parse([]byte(orderedYAML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := d.Private.Names(); len(got) != 3 || got[0] != "gamma" {
		t.Errorf("sniffed YAML order = %v, want gamma first", got)
	}
}

func TestTargetListDecoding(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		json string
		want TargetList
	}{
		{
			name: "single scalar",
			yaml: `{target: backup-server, target_type: innerserver}`,
			json: `{"target": "backup-server", "target_type": "innerserver"}`,
			want: TargetList{"backup-server"},
		},
		{
			name: "list",
			yaml: `{target: [cdn-a, cdn-b, cdn-c], target_type: innerserver, traffic_type: cdn}`,
			json: `{"target": ["cdn-a", "cdn-b", "cdn-c"], "target_type": "innerserver", "traffic_type": "cdn"}`,
			want: TargetList{"cdn-a", "cdn-b", "cdn-c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := `
private:
  lab:
    gateway:
      name: lab-router
    devices:
      - name: box
        diversion: ` + tt.yaml + `
`
			d, err := ParseYAML([]byte(src))
			if err != nil {
				t.Fatalf("ParseYAML() error = %v", err)
			}
			got := d.Private.Get("lab").Devices[0].Diversion.Target
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("yaml target = %v, want %v", got, tt.want)
			}

			jsonSrc := `{"private": {"lab": {"gateway": {"name": "lab-router"},
				"devices": [{"name": "box", "diversion": ` + tt.json + `}]}}}`
			d, err = ParseJSON([]byte(jsonSrc))
			if err != nil {
				t.Fatalf("ParseJSON() error = %v", err)
			}
			got = d.Private.Get("lab").Devices[0].Diversion.Target
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("json target = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseIgnoresUnknownFields(t *testing.T) {
	src := `
theme: dark
public:
  autonomous_systems:
    - name: metro
      region: domestic
      color: blue
private:
  lab:
    gateway:
      name: lab-router
      firmware: v2
`
	d, err := ParseYAML([]byte(src))
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}
	if d.Public.AutonomousSystems[0].Name != "metro" {
		t.Errorf("group name = %q, want metro", d.Public.AutonomousSystems[0].Name)
	}
	if d.Private.Get("lab") == nil {
		t.Error("network lab missing")
	}
}

func TestSubGatewayDetection(t *testing.T) {
	src := `
private:
  lab:
    gateway:
      name: lab-router
    devices:
      - name: plain-box
        addr: 10.0.0.5
      - name: nested-switch
        interfaces:
          - name: uplink
            type: innerlab
            addr: 10.1.0.1
`
	d, err := ParseYAML([]byte(src))
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}

	lab := d.Private.Get("lab")
	if got := len(lab.PlainDevices()); got != 1 {
		t.Errorf("plain devices = %d, want 1", got)
	}
	if got := len(lab.SubGateways()); got != 1 {
		t.Errorf("sub-gateways = %d, want 1", got)
	}
	if !lab.Devices[1].IsSubGateway() {
		t.Error("nested-switch should be a sub-gateway")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "topology.yaml")
	if err := os.WriteFile(path, []byte(orderedYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	d, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := len(d.Private); got != 3 {
		t.Errorf("networks = %d, want 3", got)
	}

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	if !neterrors.Is(err, neterrors.ErrCodeFileNotFound) {
		t.Errorf("Load(missing) code = %v, want FILE_NOT_FOUND", neterrors.GetCode(err))
	}
}

func TestParseRejectsMalformedPrivate(t *testing.T) {
	if _, err := ParseYAML([]byte("private: [a, b]\n")); err == nil {
		t.Error("sequence private should fail")
	}
	if _, err := ParseJSON([]byte(`{"private": ["a"]}`)); err == nil {
		t.Error("array private should fail")
	}
}
