package command_test

import (
	"bytes"
	"context"
	"log/slog"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zero-day-ai/gridsync/catalogue"
	"github.com/zero-day-ai/gridsync/client"
	"github.com/zero-day-ai/gridsync/cmd/gridsync/internal/command"
	"github.com/zero-day-ai/gridsync/config"
	"github.com/zero-day-ai/gridsync/serve"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
	"gopkg.in/yaml.v3"
)

// newTestCLI wires a CLI to a catalogue server holding the fixture network.
func newTestCLI(t *testing.T) (*command.CLI, *cobra.Command, *bytes.Buffer) {
	t.Helper()

	fixture, err := catalogue.LoadFixture("../../../../catalogue/testdata/network.yaml")
	require.NoError(t, err)
	backend := catalogue.NewMemoryBackend()
	require.NoError(t, fixture.Apply(context.Background(), backend))

	lis := bufconn.Listen(1024 * 1024)
	srv, err := serve.NewServer(backend, serve.WithListener(lis), serve.WithLogger(slog.New(slog.DiscardHandler)))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	dialer := grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) { return lis.Dial() })

	buf := new(bytes.Buffer)
	cli := command.NewCLI(buf)
	cli.Connect = func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*client.Client, error) {
		opts, err := cfg.ClientOptions()
		if err != nil {
			return nil, err
		}
		opts = append(opts, client.WithLogger(logger), client.WithDialOptions(dialer))
		return client.Dial(ctx, "passthrough:///bufnet", opts...)
	}

	root := command.NewRootCommand(cli)
	command.AddCommands(root, cli)
	root.SetOut(buf)
	root.SetErr(buf)
	return cli, root, buf
}

func run(t *testing.T, root *cobra.Command, args ...string) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

type printedObjects struct {
	Objects []struct {
		MRID string `yaml:"mrid"`
		Kind string `yaml:"kind"`
	} `yaml:"objects"`
	Failed []string `yaml:"failed"`
}

func parseObjects(t *testing.T, buf *bytes.Buffer) printedObjects {
	t.Helper()
	var out printedObjects
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &out))
	return out
}

func (p printedObjects) ids() []string {
	ids := make([]string, len(p.Objects))
	for i, o := range p.Objects {
		ids[i] = o.MRID
	}
	return ids
}

func TestNewRootCommand(t *testing.T) {
	cli := command.NewCLI(&bytes.Buffer{})
	cmd := command.NewRootCommand(cli)

	assert.Equal(t, "gridsync", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.True(t, cmd.SilenceUsage)
	assert.True(t, cmd.SilenceErrors)
	assert.True(t, cmd.CompletionOptions.DisableDefaultCmd)

	flag := cmd.PersistentFlags().ShorthandLookup("o")
	require.NotNil(t, flag)
	assert.Equal(t, "yaml", flag.DefValue)
}

func TestAddCommands(t *testing.T) {
	cli := command.NewCLI(&bytes.Buffer{})
	root := command.NewRootCommand(cli)
	command.AddCommands(root, cli)

	names := make(map[string]bool)
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"get", "container", "loop", "hierarchy", "metadata", "filter", "snapshot"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestInvalidOutputFormat(t *testing.T) {
	_, root, _ := newTestCLI(t)
	err := run(t, root, "metadata", "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output format")
}

func TestGet(t *testing.T) {
	_, root, buf := newTestCLI(t)

	require.NoError(t, run(t, root, "get", "b001"))
	out := parseObjects(t, buf)
	assert.Contains(t, out.ids(), "b001")
	assert.Contains(t, out.ids(), "f001")
	assert.NotContains(t, out.ids(), "lv001")
	assert.Empty(t, out.Failed)
}

func TestGet_MissingIdentifier(t *testing.T) {
	_, root, buf := newTestCLI(t)

	require.NoError(t, run(t, root, "get", "b001", "missing"))

	out := parseObjects(t, buf)
	assert.Contains(t, out.ids(), "b001")
	assert.Equal(t, []string{"missing"}, out.Failed)
}

func TestGet_IDsOutput(t *testing.T) {
	_, root, buf := newTestCLI(t)

	require.NoError(t, run(t, root, "get", "s001", "-o", "ids"))
	assert.Contains(t, buf.String(), "s001\n")
}

func TestContainer(t *testing.T) {
	_, root, buf := newTestCLI(t)

	require.NoError(t, run(t, root, "container", "f001", "--kind", "Feeder"))
	out := parseObjects(t, buf)
	assert.Contains(t, out.ids(), "f001")
	assert.Contains(t, out.ids(), "b001")
}

func TestContainer_TypeMismatch(t *testing.T) {
	_, root, _ := newTestCLI(t)

	err := run(t, root, "container", "f001", "--kind", "Circuit")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Feeder")
}

func TestContainer_MultipleRequiresEquipmentOnly(t *testing.T) {
	_, root, _ := newTestCLI(t)

	err := run(t, root, "container", "f001", "s001")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--equipment-only")
}

func TestContainer_InvalidState(t *testing.T) {
	_, root, _ := newTestCLI(t)

	assert.Error(t, run(t, root, "container", "f001", "--state", "SOMETIMES"))
}

func TestHierarchy(t *testing.T) {
	_, root, buf := newTestCLI(t)

	require.NoError(t, run(t, root, "hierarchy", "--kinds", "substations,feeders"))
	out := parseObjects(t, buf)
	assert.Contains(t, out.ids(), "s001")
	assert.Contains(t, out.ids(), "f001")
}

func TestHierarchy_UnknownKind(t *testing.T) {
	_, root, _ := newTestCLI(t)

	err := run(t, root, "hierarchy", "--kinds", "pylons")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pylons")
}

func TestMetadata_JSON(t *testing.T) {
	_, root, buf := newTestCLI(t)

	require.NoError(t, run(t, root, "metadata", "-o", "json"))
	assert.Contains(t, buf.String(), `"title"`)
}

func TestFilter_Fetched(t *testing.T) {
	_, root, buf := newTestCLI(t)

	require.NoError(t, run(t, root, "filter", `kind == "Feeder"`, "b001", "-o", "ids"))
	assert.Equal(t, "f001\n", buf.String())
}

func TestFilter_RequiresSource(t *testing.T) {
	_, root, _ := newTestCLI(t)

	assert.Error(t, run(t, root, "filter", `kind == "Feeder"`))
}

func TestFilter_InvalidExpression(t *testing.T) {
	_, root, _ := newTestCLI(t)

	assert.Error(t, run(t, root, "filter", `kind +`, "b001"))
}

func TestSnapshot_SaveLoadFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "network.db")

	_, root, buf := newTestCLI(t)
	require.NoError(t, run(t, root, "snapshot", "save", path, "b001"))
	assert.Contains(t, buf.String(), "objects:")

	_, root, buf = newTestCLI(t)
	require.NoError(t, run(t, root, "snapshot", "load", path))
	var summary struct {
		Objects int            `yaml:"objects"`
		Kinds   map[string]int `yaml:"kinds"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &summary))
	assert.Positive(t, summary.Objects)
	assert.Equal(t, 1, summary.Kinds["Breaker"])

	_, root, buf = newTestCLI(t)
	require.NoError(t, run(t, root, "filter", `kind == "Breaker"`, "--snapshot", path, "-o", "ids"))
	assert.Equal(t, "b001\n", buf.String())
}

func TestSnapshot_SaveRequiresRoots(t *testing.T) {
	_, root, _ := newTestCLI(t)

	err := run(t, root, "snapshot", "save", filepath.Join(t.TempDir(), "x.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to save")
}

func TestConnect_NoEndpoint(t *testing.T) {
	t.Setenv(config.EnvEndpoint, "")
	cfg, err := config.Parse(nil)
	require.NoError(t, err)

	_, err = command.Connect(context.Background(), cfg, slog.New(slog.DiscardHandler))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no catalogue endpoint")
}
