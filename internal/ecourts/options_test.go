package ecourts

import (
	"net/http"
	"testing"

	"ecourts-casestatus/internal/telemetry"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestParseOptions(t *testing.T) {
	testCases := []struct {
		name     string
		fragment string
		expected []Option
	}{
		{
			name:     "empty",
			fragment: "  ",
			expected: []Option{},
		},
		{
			name: "placeholders are skipped",
			fragment: `<option value="">Select district</option>
				<option value="0">--</option>
				<option value="12">Shimla</option>
				<option value="3">SELECT ME</option>
				<option value=" 4 "> Kullu </option>`,
			expected: []Option{
				{Value: "12", Text: "Shimla", RawValue: "12"},
				{Value: "4", Text: "Kullu", RawValue: "4"},
			},
		},
		{
			name:     "complex metadata",
			fragment: `<option value="1020304@2,5@N">District Court, Shimla</option><option value="1020305@7">Rohru</option>`,
			expected: []Option{
				{Value: "1020304", Text: "District Court, Shimla", RawValue: "1020304@2,5@N", EstList: "2,5", Flag: "N"},
				{Value: "1020305", Text: "Rohru", RawValue: "1020305@7", EstList: "7"},
			},
		},
		{
			name:     "only placeholders",
			fragment: `<option value="0">Select case type</option>`,
			expected: []Option{},
		},
		{
			name:     "pipe separated",
			fragment: "1|Civil Suit\n\nnot an option\n 0|Select\n2 | Criminal Appeal ",
			expected: []Option{
				{Value: "1", Text: "Civil Suit", RawValue: "1"},
				{Value: "2", Text: "Criminal Appeal", RawValue: "2"},
			},
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			if diff := cmp.Diff(test.expected, ParseOptions(test.fragment)); diff != "" {
				t.Fatal(diff)
			}
		})
	}
}

func TestStatesFromIndex(t *testing.T) {
	upstream := newFakeUpstream(t)
	client, _ := upstream.client()
	ctx := testContext(t)

	states, token := client.States(ctx)
	require.Equal(t, "token-0", token)
	if diff := cmp.Diff([]Option{
		{Value: "5", Text: "Himachal Pradesh"},
		{Value: "1", Text: "Maharashtra"},
	}, states); diff != "" {
		t.Fatal(diff)
	}

	_, _ = client.States(ctx)
	require.Equal(t, 2, upstream.count("casestatus/index"))

	client.ClearCache()
	_, _ = client.States(ctx)
	require.Equal(t, 4, upstream.count("casestatus/index"))
}

func TestStatesFromEndpoint(t *testing.T) {
	upstream := newFakeUpstream(t)
	upstream.pages["casestatus/index"] = func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<input name="app_token" value="token-0"><p>no dropdown here</p>`))
	}
	upstream.json("casestatus/getStates", map[string]any{
		"status":     1,
		"state_list": `<option value="0">Select</option><option value="13">Uttar Pradesh</option>`,
		"app_token":  "token-1",
	})
	client, rec := upstream.client()

	states, token := client.States(testContext(t))
	require.Equal(t, "token-1", token)
	require.Len(t, states, 1)
	require.Equal(t, "13", states[0].Value)
	require.True(t, rec.Has(telemetry.REPORT_WARNING, report_client_states))
	require.Equal(t, "token-0", upstream.lastForm("casestatus/getStates").Get("app_token"))
}

func TestStatesHeuristicSelect(t *testing.T) {
	upstream := newFakeUpstream(t)
	upstream.pages["casestatus/index"] = func(w http.ResponseWriter, r *http.Request) {
		page := `<select id="sel_a"><option value="1">One</option></select><select id="unnamed">`
		page += `<option value="0">Choose</option>`
		for _, s := range FallbackStates()[:12] {
			page += `<option value="` + s.Value + `">` + s.Text + `</option>`
		}
		page += `</select>`
		w.Write([]byte(page))
	}
	client, _ := upstream.client()

	states, _ := client.States(testContext(t))
	require.Len(t, states, 12)
	require.Equal(t, "Andhra Pradesh", states[0].Text)
}

func TestStatesFallback(t *testing.T) {
	upstream := newFakeUpstream(t)
	upstream.pages["casestatus/index"] = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}
	client, rec := upstream.client()

	states, token := client.States(testContext(t))
	require.Equal(t, "", token)
	require.Equal(t, FallbackStates(), states)
	require.True(t, rec.Has(telemetry.REPORT_WARNING, report_client_states))
}

func TestDistricts(t *testing.T) {
	upstream := newFakeUpstream(t)
	upstream.json("casestatus/fillDistrict", map[string]any{
		"status":    "1",
		"dist_list": `<option value="">Select district</option><option value="2">Shimla</option>`,
		"app_token": "token-1",
	})
	client, _ := upstream.client()

	districts, token, err := client.Districts(testContext(t), "5")
	require.NoError(t, err)
	require.Equal(t, "token-1", token)
	require.Equal(t, []Option{{Value: "2", Text: "Shimla", RawValue: "2"}}, districts)

	form := upstream.lastForm("casestatus/fillDistrict")
	require.Equal(t, "5", form.Get("state_code"))
	require.Equal(t, "true", form.Get("ajax_req"))
	require.Equal(t, "token-0", form.Get("app_token"))
}

func TestDistrictsUnsuccessful(t *testing.T) {
	upstream := newFakeUpstream(t)
	upstream.json("casestatus/fillDistrict", map[string]any{"status": 0})
	client, rec := upstream.client()

	districts, _, err := client.Districts(testContext(t), "5")
	require.NoError(t, err)
	require.Empty(t, districts)
	require.True(t, rec.Has(telemetry.REPORT_WARNING, report_client_districts))
}

func TestDistrictsUpstreamError(t *testing.T) {
	upstream := newFakeUpstream(t)
	client, rec := upstream.client()

	_, _, err := client.Districts(testContext(t), "5")
	require.ErrorIs(t, err, ErrUpstream)
	require.True(t, rec.Has(telemetry.REPORT_BROKEN, report_client_districts))
}

func TestCourtComplexes(t *testing.T) {
	upstream := newFakeUpstream(t)
	upstream.json("casestatus/fillcomplex", map[string]any{
		"status":       true,
		"complex_list": `<option value="0">Select court complex</option><option value="1050001@1,2@N">Shimla Court Complex</option>`,
	})
	client, _ := upstream.client()

	complexes, token, err := client.CourtComplexes(testContext(t), "5", "2")
	require.NoError(t, err)
	require.Equal(t, "token-0", token)
	if diff := cmp.Diff([]Option{{
		Value:    "1050001",
		Text:     "Shimla Court Complex",
		RawValue: "1050001@1,2@N",
		EstList:  "1,2",
		Flag:     "N",
	}}, complexes); diff != "" {
		t.Fatal(diff)
	}
	require.Equal(t, "2", upstream.lastForm("casestatus/fillcomplex").Get("dist_code"))
}

func TestCaseTypesCached(t *testing.T) {
	upstream := newFakeUpstream(t)
	upstream.json("casestatus/fillCaseType", map[string]any{
		"status":        "success",
		"casetype_list": `<option value="0">Select case type</option><option value="11">CS - Civil Suit</option>`,
	})
	client, _ := upstream.client()
	ctx := testContext(t)
	req := CaseTypesRequest{StateCode: "5", DistCode: "2", CourtComplexCode: "1050001"}

	caseTypes, _, err := client.CaseTypes(ctx, req)
	require.NoError(t, err)
	require.Equal(t, []Option{{Value: "11", Text: "CS - Civil Suit", RawValue: "11"}}, caseTypes)
	require.Equal(t, SEARCH_TYPE_CASE_NUMBER, upstream.lastForm("casestatus/fillCaseType").Get("search_type"))

	_, _, err = client.CaseTypes(ctx, req)
	require.NoError(t, err)
	require.Equal(t, 1, upstream.count("casestatus/fillCaseType"))

	req.EstCode = "2"
	_, _, err = client.CaseTypes(ctx, req)
	require.NoError(t, err)
	require.Equal(t, 2, upstream.count("casestatus/fillCaseType"))
}
