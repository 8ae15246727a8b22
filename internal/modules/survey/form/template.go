package form

const pageHTML = `<!doctype html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
:root { --ink:#1d1b16; --paper:#fbf7ef; --accent:#c2410c; --muted:#6b6357; --line:#e6dccb; }
* { box-sizing:border-box; }
body { margin:0; font-family: "Inter", system-ui, sans-serif; color:var(--ink); background:var(--paper); line-height:1.5; }
main { max-width: 760px; margin: 0 auto; padding: 32px 20px 80px; }
.home h1 { font-size: 2.4rem; line-height:1.1; margin:.2em 0; }
.home img { max-width:100%; border-radius:12px; }
.home .cta { display:inline-block; background:var(--accent); color:#fff; padding:10px 18px; border-radius:999px; text-decoration:none; }
form { margin-top: 40px; }
fieldset { border:0; border-top:1px solid var(--line); padding: 20px 0; margin:0; }
legend { font-weight:700; font-size:1.2rem; padding-right:8px; }
.field { margin: 16px 0; }
.field > label, .field > .label { display:block; font-weight:600; margin-bottom:6px; }
.req { color: var(--accent); }
input[type=text], input[type=number], input[type=url], textarea, select { width:100%; padding:10px 12px; border:1px solid var(--line); border-radius:8px; font:inherit; background:#fff; }
.choices label { display:inline-flex; gap:6px; align-items:center; margin: 0 14px 6px 0; font-weight:400; }
.error { color:#b91c1c; font-size:.9rem; margin-top:4px; }
.gate-message { margin: 12px 0; padding: 12px 14px; border-radius:8px; background:#fff4e5; }
.gate-message:empty { display:none; }
button[type=submit] { background:var(--accent); color:#fff; border:0; border-radius:999px; padding:12px 26px; font:inherit; font-weight:700; cursor:pointer; }
button[disabled] { opacity:.45; cursor:not-allowed; }
.done { padding: 24px; background:#ecfdf5; border-radius:12px; }
</style>
</head>
<body>
<main>
<section class="home">{{.Home}}</section>

{{if eq .State "submitted"}}
<div class="done">Respostas enviadas. Obrigado por participar do mapeamento!</div>
{{else}}
<form id="survey" data-state="{{.State}}" novalidate>
  {{with .CEP}}
  <div class="field" data-question="{{.ID}}" data-type="cep">
    <label for="q-{{.ID}}">{{.Label}}{{if .Required}} <span class="req">*</span>{{end}}</label>
    <input type="text" id="q-{{.ID}}" name="{{.ID}}" value="{{.Value}}" inputmode="numeric" maxlength="9" autocomplete="postal-code" placeholder="{{if .Placeholder}}{{.Placeholder}}{{else}}00000-000{{end}}" data-cep>
    <div class="error" data-error-for="{{.ID}}">{{.Error}}</div>
  </div>
  {{end}}
  <div class="gate-message" id="gate-message" role="status">{{.Message}}</div>

  <div data-gated{{if ne .State "gate-passed"}} hidden{{end}}>
  {{range .Sections}}
    <fieldset>
      <legend>{{.Name}}</legend>
      {{range .Fields}}{{template "field" .}}{{end}}
    </fieldset>
  {{end}}
    <div class="field">
      <label class="choices"><input type="checkbox" name="{{.ConsentField}}" value="true"{{if .Consent}} checked{{end}}> Autorizo o uso das informações para o mapeamento cultural de {{.AllowedCity}}.</label>
      <div class="error" data-error-for="{{.ConsentField}}"></div>
    </div>
    <button type="submit"{{if not .CanSubmit}} disabled{{end}}>Enviar</button>
  </div>
</form>
{{end}}
</main>
<script>
(function () {
  var form = document.getElementById('survey');
  if (!form) return;
  var cepInput = form.querySelector('[data-cep]');
  var gated = form.querySelector('[data-gated]');
  var message = document.getElementById('gate-message');
  var submit = form.querySelector('button[type=submit]');
  var consent = form.querySelector('input[name=consent]');
  var addressFields = Array.prototype.map.call(form.querySelectorAll('[data-autofill]'), function (el) { return el.name; });
  var state = form.dataset.state, seq = 0, lastDigits = null, submitting = false;

  function refresh() { submit.disabled = !(consent.checked && state === 'gate-passed' && !submitting); }
  function setState(next, text) {
    state = next; form.dataset.state = next;
    gated.hidden = next !== 'gate-passed';
    message.textContent = text || '';
    refresh();
  }
  function setValues(map) {
    Object.keys(map).forEach(function (id) {
      var el = form.elements.namedItem(id);
      if (el && 'value' in el) el.value = map[id];
    });
  }
  function clear(ids) { var m = {}; ids.forEach(function (id) { m[id] = ''; }); setValues(m); }
  function showErrors(errors) {
    form.querySelectorAll('[data-error-for]').forEach(function (el) { el.textContent = errors[el.dataset.errorFor] || ''; });
  }

  if (cepInput) {
    cepInput.addEventListener('input', function () {
      var digits = cepInput.value.replace(/\D/g, '');
      if (digits === lastDigits) return;
      lastDigits = digits;
      var ticket = ++seq;
      clear(addressFields);
      if (digits.length < 8) { setState('awaiting-gate', ''); return; }
      setState('awaiting-gate', 'Consultando CEP...');
      var failed = function (text) {
        if (ticket !== seq) return;
        clear(addressFields);
        setState('awaiting-gate', text || 'Não foi possível consultar o CEP agora.');
      };
      fetch('/api/v1/form/gate', { method: 'POST', headers: { 'Content-Type': 'application/json' }, body: JSON.stringify({ cep: digits, seq: ticket }) })
        .then(function (r) { return r.json().then(function (d) { return { ok: r.ok, data: d }; }); })
        .then(function (res) {
          if (ticket !== seq) return;
          if (!res.ok || res.data.seq !== ticket) { failed(res.data && res.data.message); return; }
          clear(res.data.cleared || []);
          setValues(res.data.autofill || {});
          setState(res.data.state, res.data.message);
        })
        .catch(function () { failed(); });
    });
  }

  form.querySelectorAll('input[type=file][data-upload-for]').forEach(function (input) {
    input.addEventListener('change', function () {
      if (!input.files.length) return;
      var id = input.dataset.uploadFor, body = new FormData();
      body.append('file', input.files[0]);
      submitting = true; refresh();
      fetch('/api/v1/uploads', { method: 'POST', body: body })
        .then(function (r) { return r.json().then(function (d) { if (!r.ok) throw new Error(d.message); return d; }); })
        .then(function (d) { setValues((function (m) { m[id] = d.url; return m; })({})); showErrors({}); })
        .catch(function (e) { var m = {}; m[id] = e.message || 'Falha no envio da imagem'; showErrors(m); })
        .then(function () { submitting = false; refresh(); });
    });
  });

  function collect() {
    var values = {};
    form.querySelectorAll('[data-question]').forEach(function (box) {
      var id = box.dataset.question, type = box.dataset.type, value = null;
      if (type === 'checkbox') {
        value = box.querySelector('input[type=checkbox]').checked;
      } else if (type === 'radio' || type === 'yes_no' || type === 'scale') {
        var c = box.querySelector('input[type=radio]:checked');
        value = c ? c.value : null;
      } else {
        var el = form.elements.namedItem(id);
        value = el ? el.value : null;
      }
      var other = box.querySelector('[data-other]');
      if (other && value === '__other__') value = other.value;
      if (value !== null && value !== '') values[id] = value;
    });
    values.consent = consent.checked;
    return values;
  }

  consent.addEventListener('change', refresh);
  form.addEventListener('submit', function (ev) {
    ev.preventDefault();
    if (submit.disabled) return;
    var values = collect();
    submitting = true; refresh();
    fetch('/api/v1/submissions', { method: 'POST', headers: { 'Content-Type': 'application/json' }, body: JSON.stringify({ values: values }) })
      .then(function (r) { return r.json().then(function (d) { return { ok: r.ok, data: d }; }); })
      .then(function (res) {
        if (res.ok) { form.outerHTML = '<div class="done">Respostas enviadas. Obrigado por participar do mapeamento!</div>'; return; }
        showErrors(res.data.errors || {});
        message.textContent = res.data.message || 'Não foi possível enviar suas respostas. Tente novamente.';
      })
      .catch(function () { message.textContent = 'Não foi possível enviar suas respostas. Tente novamente.'; })
      .then(function () { submitting = false; if (document.body.contains(submit)) refresh(); });
  });
  refresh();
})();
</script>
</body>
</html>
{{define "field"}}
<div class="field" data-question="{{.ID}}" data-type="{{.Type}}">
  {{if eq .Type "checkbox"}}
  <label class="choices"><input type="checkbox" name="{{.ID}}" value="true"{{if .Checked}} checked{{end}}> {{.Label}}{{if .Required}} <span class="req">*</span>{{end}}</label>
  {{else}}
  <label class="label" for="q-{{.ID}}">{{.Label}}{{if .Required}} <span class="req">*</span>{{end}}</label>
  {{if eq .Type "textarea"}}
  <textarea id="q-{{.ID}}" name="{{.ID}}" rows="4"{{if .MaxLength}} maxlength="{{.MaxLength}}"{{end}} placeholder="{{.Placeholder}}"{{if .Autofill}} data-autofill="{{.Autofill}}"{{end}}>{{.Value}}</textarea>
  {{else if eq .Type "number"}}
  <input type="number" id="q-{{.ID}}" name="{{.ID}}" value="{{.Value}}" placeholder="{{.Placeholder}}"{{if .Autofill}} data-autofill="{{.Autofill}}"{{end}}>
  {{else if eq .Type "select"}}
  <select id="q-{{.ID}}" name="{{.ID}}">
    <option value="">Selecione</option>
    {{$v := .Value}}{{range .Options}}<option value="{{.}}"{{if eq . $v}} selected{{end}}>{{.}}</option>{{end}}
    {{if .HasOther}}<option value="__other__">{{.OtherLabel}}</option>{{end}}
  </select>
  {{if .HasOther}}<input type="text" data-other placeholder="{{.OtherLabel}}">{{end}}
  {{else if eq .Type "radio"}}
  <div class="choices">
    {{$id := .ID}}{{$v := .Value}}{{range .Options}}<label><input type="radio" name="{{$id}}" value="{{.}}"{{if eq . $v}} checked{{end}}> {{.}}</label>{{end}}
    {{if .HasOther}}<label><input type="radio" name="{{.ID}}" value="__other__"> {{.OtherLabel}}</label><input type="text" data-other placeholder="{{.OtherLabel}}">{{end}}
  </div>
  {{else if eq .Type "yes_no"}}
  <div class="choices">
    {{$id := .ID}}{{$v := .Value}}{{range .Choices}}<label><input type="radio" name="{{$id}}" value="{{.Value}}"{{if eq .Value $v}} checked{{end}}> {{.Label}}</label>{{end}}
  </div>
  {{else if eq .Type "scale"}}
  <div class="choices">
    {{$id := .ID}}{{$v := .Value}}{{range .Scale}}<label><input type="radio" name="{{$id}}" value="{{.}}"{{if eq (print .) $v}} checked{{end}}> {{.}}</label>{{end}}
  </div>
  {{else if eq .Type "image"}}
  <input type="file" accept="image/*" id="q-{{.ID}}" data-upload-for="{{.ID}}">
  <input type="hidden" name="{{.ID}}" value="{{.Value}}">
  {{else if eq .Type "social"}}
  <input type="text" id="q-{{.ID}}" name="{{.ID}}" value="{{.Value}}" placeholder="{{if .Placeholder}}{{.Placeholder}}{{else}}@seu_perfil{{end}}">
  {{else}}
  <input type="text" id="q-{{.ID}}" name="{{.ID}}" value="{{.Value}}"{{if .MaxLength}} maxlength="{{.MaxLength}}"{{end}} placeholder="{{.Placeholder}}"{{if .Autofill}} data-autofill="{{.Autofill}}"{{end}}>
  {{end}}
  {{end}}
  <div class="error" data-error-for="{{.ID}}">{{.Error}}</div>
</div>
{{end}}`
