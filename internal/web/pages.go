package web

// pages.go renders HTML through templ components assembled in Go.
// The UI is a single self-contained page, so markup is built here rather
// than in generated template files.

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/ContactPort/internal/core"
)

// FormatGroup is one group of source formats for display.
type FormatGroup struct {
	Name    string
	Formats []*core.SourceFormat
}

// ErrorAlert renders an error fragment suitable for HTMX swaps.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w,
			`<div class="alert alert-error" role="alert"><strong>%s</strong>`,
			templ.EscapeString(message)); err != nil {
			return err
		}
		if action != "" {
			if _, err := fmt.Fprintf(w, `<p>%s</p>`, templ.EscapeString(action)); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintf(w, `<span class="code">%s</span></div>`, templ.EscapeString(code))
		return err
	})
}

// Dashboard renders the conversion page.
func Dashboard(groups []FormatGroup, historyEnabled bool) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, dashboardHead); err != nil {
			return err
		}

		if _, err := io.WriteString(w, `<select id="format" name="format">`); err != nil {
			return err
		}
		for _, group := range groups {
			if _, err := fmt.Fprintf(w, `<optgroup label="%s">`, templ.EscapeString(group.Name)); err != nil {
				return err
			}
			for _, f := range group.Formats {
				if _, err := fmt.Fprintf(w, `<option value="%s">%s</option>`,
					templ.EscapeString(f.Key), templ.EscapeString(f.Name)); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, `</optgroup>`); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</select>`); err != nil {
			return err
		}

		if _, err := io.WriteString(w, dashboardForm); err != nil {
			return err
		}

		if historyEnabled {
			if _, err := io.WriteString(w, dashboardHistory); err != nil {
				return err
			}
		}

		_, err := io.WriteString(w, dashboardScript)
		return err
	})
}

const dashboardHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>ContactPort</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 720px; margin: 2rem auto; padding: 0 1rem; color: #1a202c; }
h1 { font-size: 1.5rem; }
label { display: block; margin-top: 1rem; font-weight: 600; }
select, input[type=file], textarea { display: block; margin-top: .25rem; width: 100%; box-sizing: border-box; padding: .4rem; }
textarea { font-family: monospace; min-height: 5rem; }
button { margin-top: 1rem; padding: .5rem 1.25rem; cursor: pointer; }
progress { width: 100%; margin-top: 1rem; }
.alert-error { background: #fff5f5; border: 1px solid #fc8181; padding: .75rem; margin-top: 1rem; border-radius: 4px; }
.alert-error .code { color: #718096; font-size: .8rem; }
#status { margin-top: .5rem; color: #4a5568; }
table { border-collapse: collapse; width: 100%; margin-top: 1rem; }
th, td { text-align: left; border-bottom: 1px solid #e2e8f0; padding: .4rem; font-size: .9rem; }
.hidden { display: none; }
</style>
</head>
<body>
<h1>ContactPort</h1>
<p>Convert an audience export into an SES contact import file.</p>
<form id="convert-form">
<label for="format">Source format</label>
`

const dashboardForm = `
<label for="file">CSV file</label>
<input type="file" id="file" name="file" accept=".csv,text/csv" required>
<label for="topics">Topics (one per line, NAME=OPT_IN or NAME=OPT_OUT)</label>
<textarea id="topics" name="topics" placeholder="Weekly Digest=OPT_IN&#10;Promotions=OPT_OUT"></textarea>
<button type="submit" id="submit">Convert</button>
<button type="button" id="cancel" class="hidden">Cancel</button>
</form>
<progress id="progress" max="100" value="0" class="hidden"></progress>
<div id="status"></div>
<div id="result"></div>
`

const dashboardHistory = `
<h2>Recent conversions</h2>
<div id="history"></div>
`

const dashboardScript = `
<script>
(function() {
  var form = document.getElementById('convert-form');
  var statusEl = document.getElementById('status');
  var resultEl = document.getElementById('result');
  var progressEl = document.getElementById('progress');
  var cancelBtn = document.getElementById('cancel');
  var jobID = null;
  var source = null;

  function parseTopics(text) {
    var topics = [];
    text.split('\n').forEach(function(line) {
      line = line.trim();
      if (!line) return;
      var idx = line.indexOf('=');
      if (idx < 0) return;
      topics.push({ name: line.slice(0, idx).trim(), preference: line.slice(idx + 1).trim() });
    });
    return topics;
  }

  function fail(msg) {
    statusEl.textContent = '';
    resultEl.innerHTML = '<div class="alert-error">' + msg + '</div>';
    progressEl.classList.add('hidden');
    cancelBtn.classList.add('hidden');
  }

  function finished() {
    fetch('/api/convert/' + jobID + '/status').then(function(r) { return r.json(); }).then(function(st) {
      progressEl.classList.add('hidden');
      cancelBtn.classList.add('hidden');
      if (st.phase === 'complete') {
        statusEl.textContent = 'Converted ' + st.result.rows + ' rows.';
        resultEl.innerHTML = '<a href="/api/convert/' + jobID + '/download">Download converted file</a>';
      } else {
        fail(st.error || 'Conversion did not complete.');
      }
    });
  }

  form.addEventListener('submit', function(e) {
    e.preventDefault();
    resultEl.innerHTML = '';
    var file = document.getElementById('file').files[0];
    if (!file) return;

    var fd = new FormData();
    fd.append('file', file);
    fd.append('topics', JSON.stringify(parseTopics(document.getElementById('topics').value)));

    var format = document.getElementById('format').value;
    statusEl.textContent = 'Uploading…';

    fetch('/api/convert/' + encodeURIComponent(format), { method: 'POST', body: fd })
      .then(function(r) { return r.json().then(function(body) { return { ok: r.ok, body: body }; }); })
      .then(function(res) {
        if (!res.ok) { fail(res.body.message || res.body.error); return; }
        jobID = res.body.job_id;
        progressEl.classList.remove('hidden');
        cancelBtn.classList.remove('hidden');
        statusEl.textContent = 'Converting…';

        source = new EventSource('/api/convert/' + jobID + '/progress');
        source.addEventListener('progress', function(ev) {
          var p = JSON.parse(ev.data);
          progressEl.value = ev.lastEventId;
          statusEl.textContent = 'Converting… ' + p.rows + ' rows';
        });
        source.addEventListener('complete', function() {
          source.close();
          finished();
        });
        source.onerror = function() { source.close(); finished(); };
      })
      .catch(function(err) { fail(String(err)); });
  });

  cancelBtn.addEventListener('click', function() {
    if (!jobID) return;
    fetch('/api/convert/' + jobID + '/cancel', { method: 'POST' });
  });

  function esc(s) {
    var d = document.createElement('div');
    d.textContent = s == null ? '' : String(s);
    return d.innerHTML;
  }

  var historyEl = document.getElementById('history');
  if (historyEl) {
    fetch('/api/history?limit=20').then(function(r) { return r.json(); }).then(function(rows) {
      if (!rows.length) { historyEl.textContent = 'No conversions yet.'; return; }
      var html = '<table><tr><th>When</th><th>Format</th><th>File</th><th>Status</th><th>Rows</th></tr>';
      rows.forEach(function(rec) {
        html += '<tr><td>' + esc(new Date(rec.created_at).toLocaleString()) + '</td><td>' + esc(rec.format) +
          '</td><td>' + esc(rec.file_name) + '</td><td>' + esc(rec.status) +
          '</td><td>' + esc(rec.rows_converted) + '</td></tr>';
      });
      historyEl.innerHTML = html + '</table>';
    });
  }
})();
</script>
</body>
</html>
`
