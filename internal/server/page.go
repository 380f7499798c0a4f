package server

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>BTC</title>
<style>
  body { margin: 0; padding: 0; font-family: -apple-system, "Segoe UI", Roboto, sans-serif; }
  .head { text-align: center; margin-bottom: 20px; }
  h2 { margin: 12px 0 0; }
  .price { font-size: 1.2rem; font-weight: 600; }
  .up { color: green; }
  .down { color: red; }
  .chart { width: 100%; text-align: center; }
  .chart img { max-width: 100%; cursor: crosshair; }
  .buttons { margin-top: 20px; display: flex; justify-content: center; gap: 8px; flex-wrap: wrap; }
  .buttons a { padding: 2px 8px; border: 1px solid #d9d9d9; border-radius: 4px; color: #000; text-decoration: none; font-size: 14px; }
  .buttons a.selected { background: #1677ff; border-color: #1677ff; color: #fff; }
</style>
</head>
<body>
<div class="head">
  <h2>BTC</h2>
  <span id="headline" class="price {{if .Up}}up{{else}}down{{end}}">{{.Headline}}</span>
</div>
<div class="chart">
  <img id="chart" src="/v1/chart/{{.Timeframe}}?run={{.RunID}}&width={{.ChartWidth}}&height={{.ChartHeight}}"
       width="{{.ChartWidth}}" height="{{.ChartHeight}}" alt="Bitcoin price chart">
</div>
<div class="buttons">
  {{range .Buttons}}<a href="/?timeframe={{.Key}}"{{if .Selected}} class="selected"{{end}}>{{.Label}}</a>
  {{end}}
</div>
<script>
(function () {
  var img = document.getElementById("chart");
  var headline = document.getElementById("headline");
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var run = "{{.RunID}}";
  var ws = new WebSocket(proto + location.host + "/v1/ws?timeframe={{.Timeframe}}&run=" + encodeURIComponent(run));
  var scale = {{.ChartWidth}};

  ws.onmessage = function (msg) {
    var evt = JSON.parse(msg.data);
    if (evt.type !== "state") { return; }
    var s = evt.snapshot;
    if (s.run_id && s.run_id !== run) {
      run = s.run_id;
      img.src = "/v1/chart/" + s.timeframe + "?run=" + encodeURIComponent(run) +
        "&width={{.ChartWidth}}&height={{.ChartHeight}}";
    }
    headline.textContent = s.headline;
    var down = s.state.percent_change !== null && s.state.percent_change < 0;
    headline.className = "price " + (down ? "down" : "up");
  };

  function send(evt) {
    if (ws.readyState === WebSocket.OPEN) { ws.send(JSON.stringify(evt)); }
  }
  function move(clientX) {
    var rect = img.getBoundingClientRect();
    var x = (clientX - rect.left) * scale / rect.width;
    send({ type: "pointermove", x: x, width: scale });
  }
  img.addEventListener("mousemove", function (e) { move(e.clientX); });
  img.addEventListener("touchmove", function (e) {
    if (e.touches.length > 0) { move(e.touches[0].clientX); }
  });
  img.addEventListener("mouseleave", function () { send({ type: "pointerleave" }); });
  img.addEventListener("touchend", function () { send({ type: "pointerleave" }); });
  window.addEventListener("beforeunload", function () { ws.close(); });
})();
</script>
</body>
</html>
`
