package http //nolint:revive // package name conflicts with stdlib but is acceptable in this context

import (
	"net/http"
)

// frontendHTML is a minimal chart viewer: pick a chart, optionally narrow
// the feature types and bbox, and draw the converted collection on a map.
const frontendHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>S-57 Chart Viewer</title>
    <link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
    <style>
        :root { --primary: #0f4c81; --border: #d0d7de; --muted: #57606a; }
        * { box-sizing: border-box; }
        body { margin: 0; font: 14px/1.4 system-ui, sans-serif; display: flex; height: 100vh; }
        aside { width: 320px; padding: 16px; border-right: 1px solid var(--border); overflow-y: auto; }
        main { flex: 1; }
        #map { height: 100%; }
        h1 { font-size: 18px; color: var(--primary); margin: 0 0 12px; }
        label { display: block; margin: 12px 0 4px; color: var(--muted); }
        select, input, button { width: 100%; padding: 6px 8px; border: 1px solid var(--border); border-radius: 4px; }
        button { margin-top: 16px; background: var(--primary); color: #fff; border: 0; cursor: pointer; }
        #status { margin-top: 12px; color: var(--muted); white-space: pre-wrap; }
        #layers li { cursor: pointer; }
        @media (max-width: 720px) { body { flex-direction: column; } aside { width: 100%; height: auto; } main { height: 60vh; } }
    </style>
</head>
<body>
    <aside>
        <h1>S-57 Chart Viewer</h1>
        <label for="chart">Chart</label>
        <select id="chart"></select>
        <label for="types">Feature types (comma separated)</label>
        <input id="types" placeholder="DEPARE,SOUNDG">
        <label for="bbox">BBox (minLon,minLat,maxLon,maxLat)</label>
        <input id="bbox" placeholder="-0.5,49.8,0.2,50.2">
        <button id="load">Convert</button>
        <div id="status"></div>
        <ul id="layers"></ul>
    </aside>
    <main><div id="map"></div></main>
    <script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
    <script>
        (function () {
            const map = L.map('map').setView([50, 0], 6);
            L.tileLayer('https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png', {
                attribution: '&copy; OpenStreetMap contributors'
            }).addTo(map);
            let overlay = null;

            const $ = (id) => document.getElementById(id);
            const status = (msg) => { $('status').textContent = msg; };

            async function loadCharts() {
                const res = await fetch('api/v1/charts');
                const body = await res.json();
                $('chart').innerHTML = '';
                for (const c of body.charts) {
                    const opt = document.createElement('option');
                    opt.value = c.id;
                    opt.textContent = c.id + ' (' + c.status + ', ' + c.layer_count + ' layers)';
                    opt.disabled = !c.ready;
                    $('chart').appendChild(opt);
                }
                status(body.count + ' chart(s) registered');
            }

            async function convert() {
                const id = $('chart').value;
                if (!id) { return; }
                const params = new URLSearchParams();
                if ($('types').value.trim()) { params.set('feature_types', $('types').value.trim()); }
                if ($('bbox').value.trim()) { params.set('bbox', $('bbox').value.trim()); }
                status('Converting ' + id + ' ...');
                const res = await fetch('api/v1/charts/' + encodeURIComponent(id) + '/geojson?' + params);
                const body = await res.json();
                if (!res.ok) {
                    status((body.type || body.error) + ': ' + (body.message || body.error));
                    return;
                }
                if (overlay) { map.removeLayer(overlay); }
                overlay = L.geoJSON(body, {
                    pointToLayer: (f, latlng) => L.circleMarker(latlng, { radius: 3 }),
                    onEachFeature: (f, layer) => layer.bindPopup('<b>' + f.id + '</b>')
                }).addTo(map);
                if (body.features.length > 0) { map.fitBounds(overlay.getBounds()); }

                const counts = {};
                for (const f of body.features) {
                    const t = f.properties._featureType;
                    counts[t] = (counts[t] || 0) + 1;
                }
                $('layers').innerHTML = '';
                for (const [name, n] of Object.entries(counts)) {
                    const li = document.createElement('li');
                    li.textContent = name + ': ' + n;
                    li.onclick = () => { $('types').value = name; };
                    $('layers').appendChild(li);
                }
                status(body.features.length + ' feature(s)');
            }

            $('load').addEventListener('click', () => convert().catch((e) => status(String(e))));
            loadCharts().catch((e) => status(String(e)));
        })();
    </script>
</body>
</html>`

// swaggerUIHTML renders the OpenAPI document served at /openapi.json.
const swaggerUIHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>S-57 GeoJSON API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
        window.onload = () => { window.ui = SwaggerUIBundle({ url: 'openapi.json', dom_id: '#swagger-ui' }); };
    </script>
</body>
</html>`

func (s *Server) handleFrontend(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(frontendHTML))
}

func (s *Server) handleSwaggerUI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(swaggerUIHTML))
}
