package ulog

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rzbill/flightreview/internal/ulog/ulogtest"
)

type collectSink struct {
	subs []*Subscription
	recs []Record
	vals [][]any
}

func (c *collectSink) Subscribe(sub *Subscription) error {
	c.subs = append(c.subs, sub)
	return nil
}

func (c *collectSink) Record(rec Record) error {
	row := make([]any, len(rec.Sub.Layout.Columns))
	for i := range row {
		row[i] = rec.Sub.Layout.Value(rec.Payload, i)
	}
	rec.Payload = nil
	c.recs = append(c.recs, rec)
	c.vals = append(c.vals, row)
	return nil
}

const modeFormat = "commander_state:uint64_t timestamp;uint8_t main_state;uint8_t[7] _padding0;"

func modeRecord(ts uint64, mode uint8) []byte {
	return ulogtest.NewPayload().U64(ts).U8(mode).Pad(7).Bytes()
}

func decode(t *testing.T, b []byte, opts Options) (*File, *collectSink, error) {
	t.Helper()
	sink := &collectSink{}
	f, err := Decode(bytes.NewReader(b), sink, opts)
	return f, sink, err
}

func TestDecodeHeaderAndRecords(t *testing.T) {
	w := ulogtest.New(1234).
		Format(modeFormat).
		InfoString("sys_name", "PX4").
		ParamInt32("MAV_TYPE", 2).
		Subscribe(0, 0, "commander_state").
		Data(0, modeRecord(10, 0)).
		Data(0, modeRecord(20, 1)).
		Log(6, 25, "takeoff detected")
	f, sink, err := decode(t, w.Bytes(), Options{})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if f.Version != 1 || f.StartTimestamp != 1234 {
		t.Fatalf("header: version=%d start=%d", f.Version, f.StartTimestamp)
	}
	if f.LastTimestamp != 25 {
		t.Fatalf("last timestamp: %d", f.LastTimestamp)
	}
	if f.Info["sys_name"] != "PX4" {
		t.Fatalf("info: %v", f.Info)
	}
	if f.InitialParams["MAV_TYPE"] != int32(2) {
		t.Fatalf("params: %v", f.InitialParams)
	}
	if len(sink.recs) != 2 || sink.vals[1][0] != uint8(1) {
		t.Fatalf("records: %+v %v", sink.recs, sink.vals)
	}
	if len(f.Messages) != 1 || f.Messages[0].Level != 6 || f.Messages[0].Text != "takeoff detected" {
		t.Fatalf("messages: %+v", f.Messages)
	}
	cols := sink.subs[0].Layout.Columns
	if len(cols) != 1 || cols[0].Name != "main_state" {
		t.Fatalf("padding should not produce columns: %+v", cols)
	}
}

func TestDecodeBadMagic(t *testing.T) {
	b := ulogtest.New(0).Bytes()
	b[0] = 'X'
	_, _, err := decode(t, b, Options{})
	var ferr *FormatError
	if !errors.As(err, &ferr) {
		t.Fatalf("want FormatError, got %v", err)
	}
}

func TestDecodeUnsupportedVersion(t *testing.T) {
	_, _, err := decode(t, ulogtest.NewVersion(9, 0).Bytes(), Options{})
	var ferr *FormatError
	if !errors.As(err, &ferr) {
		t.Fatalf("want FormatError, got %v", err)
	}
}

func TestDecodeUnsupportedIncompatFlags(t *testing.T) {
	var incompat [8]byte
	incompat[0] = 0x02
	_, _, err := decode(t, ulogtest.New(0).FlagBits([8]byte{}, incompat).Bytes(), Options{})
	var ferr *FormatError
	if !errors.As(err, &ferr) {
		t.Fatalf("want FormatError, got %v", err)
	}
	incompat[0] = IncompatDataAppended
	if _, _, err := decode(t, ulogtest.New(0).FlagBits([8]byte{}, incompat).Bytes(), Options{}); err != nil {
		t.Fatalf("data appended flag must be accepted: %v", err)
	}
}

func TestDecodeUnknownFieldType(t *testing.T) {
	w := ulogtest.New(0).
		Format("bad:uint64_t timestamp;quaternion q;").
		Subscribe(0, 0, "bad")
	_, _, err := decode(t, w.Bytes(), Options{})
	var ferr *FormatError
	if !errors.As(err, &ferr) {
		t.Fatalf("want FormatError, got %v", err)
	}
}

func TestDecodeUndefinedMsgIDSkipped(t *testing.T) {
	w := ulogtest.New(0).
		Format(modeFormat).
		Subscribe(0, 0, "commander_state").
		Data(0, modeRecord(10, 0)).
		Data(7, modeRecord(15, 3)).
		Data(0, modeRecord(20, 1))
	f, sink, err := decode(t, w.Bytes(), Options{})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(sink.recs) != 2 {
		t.Fatalf("want 2 records, got %d", len(sink.recs))
	}
	if f.Diagnostics.Count(DiagUnknownDefinition) != 1 || f.Diagnostics.Total() != 1 {
		t.Fatalf("diagnostics: %v", f.Diagnostics.Counts())
	}
}

func TestDecodeStrictAbortsOnIntegrityError(t *testing.T) {
	w := ulogtest.New(0).
		Format(modeFormat).
		Subscribe(0, 0, "commander_state").
		Data(7, modeRecord(15, 3))
	_, _, err := decode(t, w.Bytes(), Options{Strict: true})
	var ierr *IntegrityError
	if !errors.As(err, &ierr) || ierr.MsgID != 7 {
		t.Fatalf("want IntegrityError for msg_id 7, got %v", err)
	}
}

func TestDecodeLengthMismatch(t *testing.T) {
	w := ulogtest.New(0).
		Format(modeFormat).
		Subscribe(0, 0, "commander_state").
		Data(0, ulogtest.NewPayload().U64(10).U8(1).Bytes()).
		Data(0, modeRecord(20, 2))
	f, sink, err := decode(t, w.Bytes(), Options{})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(sink.recs) != 1 || f.Diagnostics.Count(DiagLengthMismatch) != 1 {
		t.Fatalf("records=%d diags=%v", len(sink.recs), f.Diagnostics.Counts())
	}
}

func TestDecodeAllowListSkipsButTracksTime(t *testing.T) {
	w := ulogtest.New(0).
		Format(modeFormat).
		Format("cpuload:uint64_t timestamp;float load;").
		Subscribe(0, 0, "commander_state").
		Subscribe(1, 0, "cpuload").
		Data(0, modeRecord(10, 0)).
		Data(1, ulogtest.NewPayload().U64(99).F32(0.5).Bytes()).
		Data(0, modeRecord(20, 1))
	f, sink, err := decode(t, w.Bytes(), Options{Topics: []string{"commander_state"}})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(sink.subs) != 1 || len(sink.recs) != 2 {
		t.Fatalf("subs=%d recs=%d", len(sink.subs), len(sink.recs))
	}
	if f.Diagnostics.Total() != 0 {
		t.Fatalf("filtered records are not diagnostics: %v", f.Diagnostics.Counts())
	}
	if f.LastTimestamp != 99 {
		t.Fatalf("last timestamp should include filtered topics, got %d", f.LastTimestamp)
	}
}

func TestDecodeSchemaMismatchOnRebind(t *testing.T) {
	w := ulogtest.New(0).
		Format(modeFormat).
		Format("cpuload:uint64_t timestamp;float load;").
		Subscribe(0, 0, "commander_state").
		Subscribe(0, 0, "cpuload")
	_, _, err := decode(t, w.Bytes(), Options{})
	var serr *SchemaMismatchError
	if !errors.As(err, &serr) {
		t.Fatalf("want SchemaMismatchError, got %v", err)
	}
}

func TestDecodeResubscribeAfterUnsubscribe(t *testing.T) {
	w := ulogtest.New(0).
		Format(modeFormat).
		Format("cpuload:uint64_t timestamp;float load;").
		Subscribe(0, 0, "commander_state").
		Unsubscribe(0).
		Subscribe(0, 0, "cpuload").
		Data(0, ulogtest.NewPayload().U64(5).F32(0.25).Bytes())
	_, sink, err := decode(t, w.Bytes(), Options{})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(sink.recs) != 1 || sink.recs[0].Sub.Name != "cpuload" {
		t.Fatalf("records: %+v", sink.recs)
	}
}

func TestDecodeTruncation(t *testing.T) {
	full := ulogtest.New(0).
		Format(modeFormat).
		Subscribe(0, 0, "commander_state").
		Data(0, modeRecord(10, 0)).
		Data(0, modeRecord(20, 1)).
		Bytes()
	cut := full[:len(full)-4]

	f, sink, err := decode(t, cut, Options{})
	if err != nil {
		t.Fatalf("non-strict truncation should not fail: %v", err)
	}
	if len(sink.recs) != 1 || f.Diagnostics.Count(DiagTruncated) != 1 {
		t.Fatalf("recs=%d diags=%v", len(sink.recs), f.Diagnostics.Counts())
	}

	_, _, err = decode(t, cut, Options{Strict: true})
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("strict truncation: %v", err)
	}

	defs := ulogtest.New(0).Format(modeFormat).Bytes()
	_, _, err = decode(t, defs[:len(defs)-3], Options{})
	var ferr *FormatError
	if !errors.As(err, &ferr) {
		t.Fatalf("truncated definitions must be a FormatError, got %v", err)
	}
}

func TestDecodeRejectsOversizedArrays(t *testing.T) {
	huge := "char[4611686018427387904]"
	b := ulogtest.New(0).
		Format("t:uint64_t timestamp;" + huge + " a;" + huge + " b;" + huge + " c;" + huge + " d;").
		Subscribe(0, 0, "t").
		Data(0, ulogtest.NewPayload().U64(10).Bytes()).
		Bytes()
	_, sink, err := decode(t, b, Options{})
	var ferr *FormatError
	if !errors.As(err, &ferr) {
		t.Fatalf("want FormatError, got %v", err)
	}
	if len(sink.recs) != 0 {
		t.Fatalf("no records expected, got %d", len(sink.recs))
	}

	b = ulogtest.New(0).
		Format("t:uint64_t timestamp;float[20000] x;").
		Subscribe(0, 0, "t").
		Bytes()
	if _, _, err := decode(t, b, Options{}); !errors.As(err, &ferr) {
		t.Fatalf("oversized layout: want FormatError, got %v", err)
	}
}

func TestDecodeUnknownMessageTypeSkipped(t *testing.T) {
	w := ulogtest.New(0).
		Format(modeFormat).
		Subscribe(0, 0, "commander_state").
		Raw('Z', []byte{1, 2, 3}).
		Data(0, modeRecord(10, 0))
	f, sink, err := decode(t, w.Bytes(), Options{})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(sink.recs) != 1 || f.Diagnostics.Count(DiagUnknownMessage) != 1 {
		t.Fatalf("recs=%d diags=%v", len(sink.recs), f.Diagnostics.Counts())
	}
}

func TestDecodeSyncDropoutAndChangedParams(t *testing.T) {
	w := ulogtest.New(0).
		Format(modeFormat).
		ParamFloat("MPC_XY_VEL_MAX", 12).
		Subscribe(0, 0, "commander_state").
		Data(0, modeRecord(10, 0)).
		Sync().
		Dropout(150).
		ParamFloat("MPC_XY_VEL_MAX", 8)
	f, _, err := decode(t, w.Bytes(), Options{})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if f.SyncCount != 1 {
		t.Fatalf("sync count: %d", f.SyncCount)
	}
	if len(f.Dropouts) != 1 || f.Dropouts[0].DurationMs != 150 || f.Dropouts[0].Timestamp != 10 {
		t.Fatalf("dropouts: %+v", f.Dropouts)
	}
	if f.InitialParams["MPC_XY_VEL_MAX"] != float32(12) {
		t.Fatalf("initial params: %v", f.InitialParams)
	}
	if len(f.ChangedParams) != 1 || f.ChangedParams[0].Value != float32(8) || f.ChangedParams[0].Timestamp != 10 {
		t.Fatalf("changed params: %+v", f.ChangedParams)
	}
}

func TestDecodeMultiInfo(t *testing.T) {
	w := ulogtest.New(0).
		InfoMultiple("perf_top", "a", false).
		InfoMultiple("perf_top", "b", true).
		InfoMultiple("perf_top", "c", false)
	f, _, err := decode(t, w.Bytes(), Options{})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	lists := f.MultiInfo["perf_top"]
	if len(lists) != 2 || len(lists[0]) != 2 || lists[1][0] != "c" {
		t.Fatalf("multi info: %v", lists)
	}
}

func FuzzDecode(f *testing.F) {
	f.Add(ulogtest.New(1234).
		Format(modeFormat).
		InfoString("sys_name", "PX4").
		ParamInt32("MAV_TYPE", 2).
		Subscribe(0, 0, "commander_state").
		Data(0, modeRecord(10, 0)).
		Log(6, 25, "takeoff").
		Sync().
		Dropout(5).
		Bytes())
	f.Add(ulogtest.New(0).
		Format("inner:float a;uint8_t[3] b;").
		Format("t:uint64_t timestamp;inner[2] i;char[8] name;").
		Subscribe(3, 1, "t").
		InfoMultiple("perf", "x", false).
		Unsubscribe(3).
		Bytes())
	f.Add([]byte("ULog\x01\x12\x35\x01"))
	f.Fuzz(func(t *testing.T, b []byte) {
		for _, strict := range []bool{false, true} {
			sink := &collectSink{}
			_, _ = Decode(bytes.NewReader(b), sink, Options{Strict: strict, DiagnosticsLimit: 8})
		}
	})
}
