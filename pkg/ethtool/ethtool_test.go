package ethtool

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sshcollectorpro/ethtoolpro/pkg/metrics"
)

// fakeRunner 按完整命令行返回预置结果，并记录调用顺序
type fakeRunner struct {
	mu        sync.Mutex
	calls     []string
	responses map[string]*Result
	fallback  *Result
	err       error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{responses: map[string]*Result{}, fallback: &Result{}}
}

func (f *fakeRunner) on(command, stdout string) *fakeRunner {
	f.responses[command] = &Result{Stdout: stdout}
	return f
}

func (f *fakeRunner) onResult(command string, res *Result) *fakeRunner {
	f.responses[command] = res
	return f
}

func (f *fakeRunner) Run(_ context.Context, command string) (*Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, command)
	if f.err != nil {
		return nil, f.err
	}
	res, ok := f.responses[command]
	if !ok {
		res = f.fallback
	}
	cp := *res
	cp.Command = command
	return &cp, nil
}

func (f *fakeRunner) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return ""
	}
	return f.calls[len(f.calls)-1]
}

const pauseOutput = `Pause parameters for enp2s0:
Autonegotiate:  on
RX:             on
TX:             on
`

func TestCommandLine(t *testing.T) {
	e := New(newFakeRunner())

	assert.Equal(t, "ethtool enp2s0", e.Command("", "enp2s0", ""))
	assert.Equal(t, "ethtool -a enp2s0", e.Command("-a", "enp2s0", ""))
	assert.Equal(t, "ethtool -G enp2s0 rx 512", e.Command("-G", "enp2s0", "rx 512"))
	assert.Equal(t, "ip netns exec NS1 ethtool -a enp2s0", e.Command("-a", "enp2s0", "", InNamespace("NS1")))
	assert.Equal(t, "ethtool --version", e.Command("--version", "", ""))

	custom := New(newFakeRunner(), WithBinary("/usr/sbin/ethtool"))
	assert.Equal(t, "/usr/sbin/ethtool -i eth0", custom.Command("-i", "eth0", ""))
}

func TestExecuteReturnsStdout(t *testing.T) {
	r := newFakeRunner().on("ethtool -a enp2s0", pauseOutput)
	e := New(r)

	out, err := e.Execute(context.Background(), "-a", "enp2s0", "")
	require.NoError(t, err)
	assert.Equal(t, pauseOutput, out)
	assert.Equal(t, "ethtool -a enp2s0", r.last())
}

func TestExecuteRejectsUnexpectedReturnCode(t *testing.T) {
	r := newFakeRunner().onResult("ethtool enp2s0", &Result{ReturnCode: 1, Stderr: "No such device"})
	e := New(r)

	_, err := e.Execute(context.Background(), "", "enp2s0", "")
	require.Error(t, err)

	var execErr *ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, 1, execErr.ReturnCode)
	assert.Equal(t, "ethtool enp2s0", execErr.Command)
	assert.Contains(t, err.Error(), "No such device")
}

func TestExecuteAcceptsExpectedReturnCodes(t *testing.T) {
	r := newFakeRunner().onResult("ethtool -G enp2s0 tx 1", &Result{
		ReturnCode: 81,
		Stderr:     "Cannot set device ring parameters: Invalid argument\n",
	})
	e := New(r)

	out, err := e.Execute(context.Background(), "-G", "enp2s0", "tx 1", ExpectCodes(0, 80, 81))
	require.NoError(t, err)
	assert.Equal(t, "", out)

	_, err = New(r, WithSucceedCodes(0, 81)).Execute(context.Background(), "-G", "enp2s0", "tx 1")
	assert.NoError(t, err)
}

func TestExecuteStderrWithZeroReturnCode(t *testing.T) {
	r := newFakeRunner().onResult("ethtool enp2s0", &Result{
		Stdout: "Settings for enp2s0:\n\tSpeed: 1000Mb/s\n",
		Stderr: "Cannot get wake-on-lan settings: Operation not permitted",
	})
	e := New(r)

	_, err := e.Execute(context.Background(), "", "enp2s0", "")
	require.Error(t, err)
	assert.EqualError(t, err, "error while running ethtool command: Cannot get wake-on-lan settings: Operation not permitted")
}

func TestExecuteTransportFailure(t *testing.T) {
	r := newFakeRunner()
	r.err = errors.New("connection reset")
	e := New(r)

	_, err := e.Execute(context.Background(), "-i", "eth0", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")

	var execErr *ExecutionError
	assert.False(t, errors.As(err, &execErr))
}

func TestExecuteRejectsShellMetacharacters(t *testing.T) {
	cases := []struct {
		option, device, params, namespace string
	}{
		{option: "--version >/dev/null 2>&1;"},
		{option: "-i", device: "eth0", params: "echo INJECTED-$(id -un)"},
		{option: "-i", device: "eth0;reboot"},
		{option: "-i", device: "eth0", params: "`id`"},
		{option: "-i", device: "eth0", namespace: "ns1|sh"},
	}
	for _, c := range cases {
		r := newFakeRunner()
		_, err := New(r).Execute(context.Background(), c.option, c.device, c.params, InNamespace(c.namespace))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidArgument)
		assert.Empty(t, r.calls, "非法参数不应到达执行器")
	}
}

func TestValidateArgs(t *testing.T) {
	assert.NoError(t, ValidateArgs("-s", "enp2s0.100", "speed 1000 duplex full msglvl 0x07", "ns-1"))
	assert.NoError(t, ValidateArgs("-f", "eth0", "/lib/firmware/fw.bin 0", ""))
	assert.NoError(t, ValidateArgs("-N", "eth0", "flow-type tcp4 src-ip 10.0.0.1 m 255.255.255.0 action -1", ""))
	assert.ErrorIs(t, ValidateArgs("-i", "eth0 && true"), ErrInvalidArgument)
	assert.ErrorIs(t, ValidateArgs("-i", "eth0", "\"quoted\""), ErrInvalidArgument)
}

func TestGetVersion(t *testing.T) {
	r := newFakeRunner().on("ethtool --version", "ethtool version 4.15\n")
	e := New(r)

	v, err := e.GetVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "4.15", v)
	assert.NoError(t, e.CheckIfAvailable(context.Background()))
}

func TestGetVersionNotFound(t *testing.T) {
	e := New(newFakeRunner())

	_, err := e.GetVersion(context.Background())
	assert.ErrorIs(t, err, ErrVersionNotFound)
}

func TestCheckIfAvailableWhenToolMissing(t *testing.T) {
	r := newFakeRunner().onResult("ethtool --version", &Result{ReturnCode: 127, Stderr: "ethtool: command not found"})
	e := New(r)

	err := e.CheckIfAvailable(context.Background())
	assert.ErrorIs(t, err, ErrNotAvailable)
}

func TestExecuteRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	r := newFakeRunner().
		on("ethtool -a enp2s0", pauseOutput).
		onResult("ethtool -g enp2s0", &Result{ReturnCode: 1})
	e := New(r, WithMetrics(m))

	_, err := e.Execute(context.Background(), "-a", "enp2s0", "")
	require.NoError(t, err)
	_, err = e.Execute(context.Background(), "-g", "enp2s0", "")
	require.Error(t, err)
	_, err = e.GetPauseOptions(context.Background(), "missing0")
	require.Error(t, err)

	// 空输出在执行层面仍算成功，失败记在解析指标上
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CommandsTotal.WithLabelValues("-a", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CommandsTotal.WithLabelValues("-g", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ParseFailures.WithLabelValues(string(FamilyPause))))
}

func TestNilMetricsIsSafe(t *testing.T) {
	e := New(newFakeRunner().on("ethtool -a eth0", pauseOutput))
	_, err := e.GetPauseOptions(context.Background(), "eth0")
	assert.NoError(t, err)
}
