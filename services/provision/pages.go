package provision

const formPage = `<!DOCTYPE html>
<html>
<head>
  <title>Device Setup</title>
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <style>
    body { font-family: Arial, sans-serif; max-width: 400px; margin: 0 auto; padding: 20px; }
    h1 { color: #444; text-align: center; }
    form { background: #f9f9f9; padding: 20px; border-radius: 5px; }
    input { width: 100%; padding: 10px; margin: 8px 0; box-sizing: border-box; }
    input[type=submit] { background: #4CAF50; color: white; border: none; }
  </style>
</head>
<body>
  <h1>Emergency Alert Setup</h1>
  <form action="/save" method="post">
    <label for="ssid">WiFi Network:</label>
    <input type="text" id="ssid" name="ssid" required maxlength="31" placeholder="Your WiFi name">
    <label for="password">WiFi Password:</label>
    <input type="password" id="password" name="password" maxlength="31" placeholder="Your WiFi password">
    <label for="deviceName">Device Name:</label>
    <input type="text" id="deviceName" name="deviceName" required maxlength="31" placeholder="e.g., John's Device">
    <input type="submit" value="Save Configuration">
  </form>
</body>
</html>
`

const savedPage = `<h1>Configuration Saved!</h1><p>Device will restart and connect to your network.</p>`

const failedPage = `<h1>Configuration Not Saved</h1><p>The device could not store the settings. Please try again.</p>`

const busyPage = `<h1>Device Busy</h1><p>Please try again in a moment.</p>`
